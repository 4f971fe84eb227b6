package users

import (
	"context"
	"net/url"
)

const usersPath = "/users"

// API is the subset of the authenticated client the service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
}

// Service manages the users of the caller's tenant.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var user User
	if err := s.api.PostJSON(ctx, usersPath, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	var list []User
	if err := s.api.Get(ctx, usersPath, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Current returns the account the session belongs to.
func (s *Service) Current(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.Get(ctx, usersPath+"/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
