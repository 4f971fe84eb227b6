package tenants

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-rag-admin/users"
)

const companiesPath = "/superadmin/companies"

// API is the subset of the authenticated client the service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
}

// Service manages companies. Every call requires a super-admin session.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var company Company
	if err := s.api.PostJSON(ctx, companiesPath, req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := s.api.Get(ctx, companiesPath, nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// CreateAdmin creates the administrator of the company with req.TenantCode. The returned
// user carries the API key, which is only ever shown once.
func (s *Service) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*users.User, error) {
	if req.Role == "" {
		req.Role = users.RoleAdmin
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var admin users.User
	if err := s.api.PostJSON(ctx, companiesPath+"/"+url.PathEscape(req.TenantCode)+"/admin", req, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}
