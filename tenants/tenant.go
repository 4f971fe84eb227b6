package tenants

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/internal/utils"
	"github.com/jrsteele09/go-rag-admin/users"
)

// Company is a tenant of the RAG backend. Every user and document belongs to exactly
// one company, identified by its tenant code.
type Company struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	TenantCode string `json:"tenant_code"`
	SlugURL    string `json:"slug_url"`
}

type CreateCompanyRequest struct {
	Name       string  `json:"name"`
	TenantCode string  `json:"tenant_code"`
	SlugURL    *string `json:"slug_url,omitempty"`
}

func (r CreateCompanyRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: company name is required", apperrors.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.TenantCode) == "" {
		return fmt.Errorf("%w: tenant code is required", apperrors.ErrInvalidRequest)
	}
	if strings.ContainsAny(r.TenantCode, " /") {
		return fmt.Errorf("%w: tenant code must not contain spaces or slashes", apperrors.ErrInvalidRequest)
	}
	return nil
}

// NewCreateCompanyRequest builds a request, leaving slug_url unset when slug is empty.
func NewCreateCompanyRequest(name, tenantCode, slug string) CreateCompanyRequest {
	req := CreateCompanyRequest{Name: strings.TrimSpace(name), TenantCode: strings.TrimSpace(tenantCode)}
	if slug = strings.TrimSpace(slug); slug != "" {
		req.SlugURL = utils.Ptr(slug)
	}
	return req
}

// CreateAdminRequest creates the first administrator of a company.
type CreateAdminRequest struct {
	TenantCode  string     `json:"tenant_code"`
	DisplayName string     `json:"display_name"`
	UserCode    string     `json:"user_code"` // Must start with the tenant code
	Role        users.Role `json:"role"`
}

func (r CreateAdminRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.TenantCode) == "":
		return fmt.Errorf("%w: tenant code is required", apperrors.ErrInvalidRequest)
	case strings.TrimSpace(r.DisplayName) == "":
		return fmt.Errorf("%w: display name is required", apperrors.ErrInvalidRequest)
	case strings.TrimSpace(r.UserCode) == "":
		return fmt.Errorf("%w: user code is required", apperrors.ErrInvalidRequest)
	case !strings.HasPrefix(r.UserCode, r.TenantCode):
		return fmt.Errorf("%w: user code must start with the tenant code %q", apperrors.ErrInvalidRequest, r.TenantCode)
	case r.Role != users.RoleAdmin:
		return fmt.Errorf("%w: company administrators must have the admin role", apperrors.ErrInvalidRequest)
	}
	return nil
}
