package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/useraccounts/accounts-api/internal/core/domain"
)

const tokensCollection = "tokens"

// TokenStore implements ports.TokenStore. The token key is the document _id
// and user_id carries a unique index, so a user can never own two documents.
type TokenStore struct {
	coll *mongo.Collection
}

func NewTokenStore(db *mongo.Database) *TokenStore {
	return &TokenStore{coll: db.Collection(tokensCollection)}
}

type mongoToken struct {
	Key       string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *TokenStore) Create(ctx context.Context, token *domain.Token) error {
	doc := mongoToken{Key: token.Key, UserID: token.UserID, CreatedAt: token.CreatedAt.UTC()}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenStore) FindByKey(ctx context.Context, key string) (*domain.Token, error) {
	var mt mongoToken
	if err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.Token{Key: mt.Key, UserID: mt.UserID, CreatedAt: mt.CreatedAt.UTC()}, nil
}

func (r *TokenStore) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes creates the one-token-per-user index.
func (r *TokenStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_id"),
	})
	return err
}
