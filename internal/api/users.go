package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
)

// UserService wraps the /users endpoints.
type UserService struct {
	client *rest.Client
}

// NewUserService creates a user service over the transport client.
func NewUserService(client *rest.Client) *UserService {
	return &UserService{client: client}
}

// Get resolves a user by id, used for deep links naming a partner that is
// not yet in the cache. rest.ErrNotFound when the backend knows no such user.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &u); err != nil {
		return nil, fmt.Errorf("fetch user %d: %w", id, err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("fetch user %d: %w", id, rest.ErrNotFound)
	}
	return &u, nil
}

// SearchByUsername finds a user by exact username. rest.ErrNotFound when no
// account matches.
func (s *UserService) SearchByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	path := "/users/search?username=" + url.QueryEscape(username)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &u); err != nil {
		return nil, fmt.Errorf("search user %q: %w", username, err)
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("search user %q: %w", username, rest.ErrNotFound)
	}
	return &u, nil
}
