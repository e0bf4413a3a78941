package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
)

// AuthService wraps the /auth endpoints. These are the only calls issued
// without a bearer token.
type AuthService struct {
	client *rest.Client
}

// NewAuthService creates an auth service over the transport client.
func NewAuthService(client *rest.Client) *AuthService {
	return &AuthService{client: client}
}

// AuthResult is the backend's response to a successful login, registration
// or guest session.
type AuthResult struct {
	Token    string `json:"token"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// User projects the result into the model type stored with the credentials.
func (r *AuthResult) User() model.User {
	return model.User{ID: r.ID, Username: r.Username, FullName: r.FullName}
}

// Login exchanges username/password for a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "password": password}
	var res AuthResult
	if err := s.client.Do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: %w", rest.Validation("server returned no token"))
	}
	return &res, nil
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

// Register creates an account and returns a signed-in result.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var res AuthResult
	if err := s.client.Do(ctx, http.MethodPost, "/auth/register", req, &res); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &res, nil
}

// Guest starts an anonymous browsing session.
func (s *AuthService) Guest(ctx context.Context) (*AuthResult, error) {
	var res AuthResult
	if err := s.client.Do(ctx, http.MethodPost, "/auth/guest", nil, &res); err != nil {
		return nil, fmt.Errorf("guest session: %w", err)
	}
	return &res, nil
}
