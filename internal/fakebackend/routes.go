package fakebackend

import (
	"github.com/jrsteele09/go-rag-admin/users"
)

const (
	RouteAuthLogin       = "/auth/login"
	RouteAuthRefresh     = "/auth/refresh-token"
	RouteUsers           = "/users"
	RouteUsersMe         = "/users/me"
	RouteCompanies       = "/superadmin/companies"
	RouteCompanyAdmin    = "/superadmin/companies/{tenant}/admin"
	RouteDocumentsUpload = "/documents/upload"
	RouteDocuments       = "/documents"
	RouteDocument        = "/documents/{id}"
	RouteWebsitesScrape  = "/websites/scrape"
	RouteWebsites        = "/websites"
	RouteWebsite         = "/websites/{id}"
	RouteQuery           = "/query"
)

func (s *Server) initRoutes() {
	public := s.APIMiddleware()
	authed := s.APIMiddleware(s.RequireAuth)
	superAdmin := s.APIMiddleware(s.RequireAuth, s.RequireRole(users.RoleSuperAdmin))
	tenantAdmin := s.APIMiddleware(s.RequireAuth, s.RequireRole(users.RoleAdmin))
	trainer := s.APIMiddleware(s.RequireAuth, s.RequireRole(users.RoleAdmin, users.RoleUser))

	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), public...))

	// USERS
	s.RegisterRouteFunc("GET "+RouteUsersMe, ChainMiddleware(s.CurrentUserHandler(), authed...))
	s.RegisterRouteFunc("GET "+RouteUsers, ChainMiddleware(s.ListUsersHandler(), tenantAdmin...))
	s.RegisterRouteFunc("POST "+RouteUsers, ChainMiddleware(s.CreateUserHandler(), tenantAdmin...))

	// COMPANIES
	s.RegisterRouteFunc("GET "+RouteCompanies, ChainMiddleware(s.ListCompaniesHandler(), superAdmin...))
	s.RegisterRouteFunc("POST "+RouteCompanies, ChainMiddleware(s.CreateCompanyHandler(), superAdmin...))
	s.RegisterRouteFunc("POST "+RouteCompanyAdmin, ChainMiddleware(s.CreateCompanyAdminHandler(), superAdmin...))

	// TRAINING
	s.RegisterRouteFunc("POST "+RouteDocumentsUpload, ChainMiddleware(s.UploadDocumentHandler(), trainer...))
	s.RegisterRouteFunc("GET "+RouteDocuments, ChainMiddleware(s.ListDocumentsHandler(), trainer...))
	s.RegisterRouteFunc("DELETE "+RouteDocument, ChainMiddleware(s.DeleteDocumentHandler(), trainer...))
	s.RegisterRouteFunc("POST "+RouteWebsitesScrape, ChainMiddleware(s.ScrapeWebsitesHandler(), trainer...))
	s.RegisterRouteFunc("GET "+RouteWebsites, ChainMiddleware(s.ListWebsitesHandler(), trainer...))
	s.RegisterRouteFunc("DELETE "+RouteWebsite, ChainMiddleware(s.DeleteWebsiteHandler(), trainer...))
	s.RegisterRouteFunc("POST "+RouteQuery, ChainMiddleware(s.QueryHandler(), trainer...))
}
