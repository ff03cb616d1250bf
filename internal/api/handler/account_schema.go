package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Name     string `json:"name"     form:"name"     validate:"max=30"`
	Email    string `json:"email"    form:"email"    validate:"required,email,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=72,maxbytes=72"`
}

// loginRequest accepts and ignores name so register and login share a body shape.
type loginRequest struct {
	Name     string `json:"name"     form:"name"`
	Email    string `json:"email"    form:"email"    validate:"required,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=100"`
}

type updateProfileRequest struct {
	Name     string `json:"name"     form:"name"     validate:"required,max=30"`
	Email    string `json:"email"    form:"email"    validate:"required,email,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=72,maxbytes=72"`
}

// --- Response types ---

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type profileResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type updateProfileResponse struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	PasswordChanged bool   `json:"password_changed"`
}
