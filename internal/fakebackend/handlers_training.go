package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-rag-admin/training"
)

const maxUploadBytes = 10 << 20

func (s *Server) UploadDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "multipart body required")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "file field is required")
			return
		}
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read upload")
			return
		}

		claims := claimsFrom(r)
		doc := s.library.addDocument(claims.TenantCode, claims.UserID, header.Filename, content, s.nowFunc())
		writeJSON(w, http.StatusOK, training.UploadResponse{
			ID:         doc.ID,
			Filename:   doc.Filename,
			TenantCode: claims.TenantCode,
			CreatedAt:  doc.CreatedAt,
		})
	}
}

func (s *Server) ListDocumentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		writeJSON(w, http.StatusOK, s.library.listDocuments(claims.TenantCode, uploaderFilter(r, claims)))
	}
}

func (s *Server) DeleteDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || !s.library.deleteDocument(claimsFrom(r).TenantCode, id) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
	}
}

func (s *Server) ScrapeWebsitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req training.ScrapeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		claims := claimsFrom(r)
		out := make([]training.Website, 0, len(req.URLs))
		for _, u := range req.URLs {
			out = append(out, s.library.addWebsite(claims.TenantCode, claims.UserID, u, s.nowFunc()))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) ListWebsitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		writeJSON(w, http.StatusOK, s.library.listWebsites(claims.TenantCode, uploaderFilter(r, claims)))
	}
}

func (s *Server) DeleteWebsiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || !s.library.deleteWebsite(claimsFrom(r).TenantCode, id) {
			writeError(w, http.StatusNotFound, "Website not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Website deleted"})
	}
}

// QueryHandler answers with the names of the tenant's documents instead of running
// retrieval.
func (s *Server) QueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req training.QueryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		claims := claimsFrom(r)
		uploader := 0
		if req.UserFilter {
			uploader = claims.UserID
		}
		docs := s.library.listDocuments(claims.TenantCode, uploader)
		if req.TopK > 0 && len(docs) > req.TopK {
			docs = docs[:req.TopK]
		}

		answer := training.QueryAnswer{Answer: fmt.Sprintf("No indexed content answers %q.", req.Question)}
		if len(docs) > 0 {
			answer.Answer = fmt.Sprintf("Found %d source(s) for %q.", len(docs), req.Question)
		}
		for _, d := range docs {
			answer.Sources = append(answer.Sources, training.Source{DocumentID: d.ID, Filename: d.Filename, Score: 1})
		}
		writeJSON(w, http.StatusOK, answer)
	}
}

func uploaderFilter(r *http.Request, claims *accessClaims) int {
	if mine, _ := strconv.ParseBool(r.URL.Query().Get("my_docs_only")); mine {
		return claims.UserID
	}
	return 0
}
