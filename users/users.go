package users

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// Role is the role a backend account carries in its access token.
type Role string

const (
	RoleSuperAdmin Role = "superadmin" // Manages companies across all tenants
	RoleAdmin      Role = "admin"      // Manages users and training data within a tenant
	RoleUser       Role = "user"       // Uploads and queries training data within a tenant
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// CanManageTenants reports whether the role may create and list companies.
func (r Role) CanManageTenants() bool {
	return r == RoleSuperAdmin
}

// CanManageUsers reports whether the role may create and list users of its tenant.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanTrain reports whether the role may upload documents, scrape websites and query.
func (r Role) CanTrain() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account as returned by the backend. APIKey is only present in the
// response that created the account.
type User struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	UserCode    string `json:"user_code"`
	Role        Role   `json:"role"`
	APIKey      string `json:"api_key,omitempty"`
}

var contactNumberPattern = regexp.MustCompile(`^\+?[0-9\- ]{10}$`)

const minPasswordLength = 8

type CreateUserRequest struct {
	TenantCode    string `json:"tenant_code"`
	DisplayName   string `json:"display_name"`
	UserCode      string `json:"user_code"`
	Role          Role   `json:"role"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

func (r CreateUserRequest) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{apperrors.ErrInvalidRequest}, args...)...)
	}
	switch {
	case strings.TrimSpace(r.DisplayName) == "":
		return invalid("name is required")
	case strings.TrimSpace(r.TenantCode) == "":
		return invalid("tenant code is required")
	case strings.TrimSpace(r.UserCode) == "":
		return invalid("user code is required")
	case r.Role != RoleAdmin && r.Role != RoleUser:
		return invalid("role must be admin or user, got %q", r.Role)
	case !contactNumberPattern.MatchString(r.ContactNumber):
		return invalid("invalid phone number")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return invalid("invalid email")
	}
	return ValidatePasswordStrength(r.Password)
}

// ValidatePasswordStrength checks the minimum password length accepted by the backend.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrInvalidRequest, minPasswordLength)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
