package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/tenants"
	"github.com/jrsteele09/go-rag-admin/users"
)

func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.accounts.GetByID(claimsFrom(r).UserID)
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, account.Public())
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := s.accounts.List(claimsFrom(r).TenantCode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]users.User, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, a.Public())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.CreateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		if req.TenantCode != claimsFrom(r).TenantCode {
			writeError(w, http.StatusForbidden, "Cannot create users in another tenant")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		account, err := s.createAccount(req.TenantCode, req.DisplayName, req.UserCode, req.Role, req.Email, req.Password)
		if err != nil {
			writeAccountError(w, err)
			return
		}
		account.Address = req.Address
		account.ContactNumber = req.ContactNumber
		_ = s.accounts.Upsert(account)
		writeJSON(w, http.StatusCreated, account.User)
	}
}

func (s *Server) ListCompaniesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := s.companies.List(0, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, companies)
	}
}

func (s *Server) CreateCompanyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tenants.CreateCompanyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if _, err := s.companies.Get(req.TenantCode); err == nil {
			writeError(w, http.StatusConflict, "Tenant code already exists")
			return
		}
		company := &tenants.Company{Name: req.Name, TenantCode: req.TenantCode, SlugURL: req.TenantCode}
		if req.SlugURL != nil && *req.SlugURL != "" {
			company.SlugURL = *req.SlugURL
		}
		if err := s.companies.Upsert(company); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, company)
	}
}

func (s *Server) CreateCompanyAdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantCode := r.PathValue("tenant")
		if _, err := s.companies.Get(tenantCode); err != nil {
			writeError(w, http.StatusNotFound, "Company not found")
			return
		}
		var req tenants.CreateAdminRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		req.TenantCode = tenantCode
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		account, err := s.createAccount(tenantCode, req.DisplayName, req.UserCode, users.RoleAdmin, "", "")
		if err != nil {
			writeAccountError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, account.User)
	}
}

// createAccount stores a new account with a fresh API key. Without a password the API
// key doubles as the login password.
func (s *Server) createAccount(tenantCode, displayName, userCode string, role users.Role, email, password string) (*users.Account, error) {
	if _, err := s.accounts.GetByUsername(userCode); err == nil {
		return nil, errUserExists
	}
	keyBytes := make([]byte, 16)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, err
	}
	apiKey := hex.EncodeToString(keyBytes)
	if password == "" {
		password = apiKey
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &users.Account{
		User: users.User{
			DisplayName: strings.TrimSpace(displayName),
			UserCode:    userCode,
			Role:        role,
			APIKey:      apiKey,
		},
		TenantCode:   tenantCode,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.accounts.Upsert(account); err != nil {
		return nil, err
	}
	return account, nil
}

var errUserExists = apperrors.Wrapf(apperrors.ErrInvalidRequest, "user code already exists")

func writeAccountError(w http.ResponseWriter, err error) {
	if err == errUserExists {
		writeError(w, http.StatusConflict, "User code already exists")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
