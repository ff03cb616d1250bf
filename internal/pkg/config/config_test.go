package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("expected bcrypt cost 10, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.MintLockTTL != 5*time.Second {
		t.Errorf("unexpected lock ttl: %v", cfg.Auth.MintLockTTL)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development env by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":         "9090",
		"ENV":          "production",
		"STORE_DRIVER": "postgres",
		"DATABASE_URL": "postgres://u:p@db:5432/x",
		"REDIS_DB":     "2",
		"BCRYPT_COST":  "12",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.StoreDriver != DriverPostgres || cfg.Redis.DB != 2 || cfg.Auth.BcryptCost != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Postgres.DSN != "postgres://u:p@db:5432/x" {
		t.Fatalf("unexpected dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"STORE_DRIVER": "sqlite"}))
	if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"BCRYPT_COST": "2"}))
	if err == nil || !strings.Contains(err.Error(), "BCRYPT_COST") {
		t.Fatalf("expected bcrypt cost error, got %v", err)
	}
}
