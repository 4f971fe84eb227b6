package training

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
)

// API is the subset of the authenticated client the services need.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
	PostMultipart(ctx context.Context, path, field, filename string, content io.Reader, fields map[string]string, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Service uploads and manages training data and answers questions against it.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) UploadDocument(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	var resp UploadResponse
	if err := s.api.PostMultipart(ctx, "/documents/upload", "file", filename, content, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDocuments lists the tenant's documents, or only the caller's when mineOnly is set.
func (s *Service) ListDocuments(ctx context.Context, mineOnly bool) ([]Document, error) {
	var docs []Document
	if err := s.api.Get(ctx, "/documents", myDocsOnly(mineOnly), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id int) error {
	return s.api.Delete(ctx, "/documents/"+strconv.Itoa(id), nil)
}

func (s *Service) ScrapeWebsites(ctx context.Context, req ScrapeRequest) ([]Website, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.api.PostJSON(ctx, "/websites/scrape", req, &raw); err != nil {
		return nil, err
	}
	return decodeWebsites(raw)
}

func (s *Service) ListWebsites(ctx context.Context, mineOnly bool) ([]Website, error) {
	var sites []Website
	if err := s.api.Get(ctx, "/websites", myDocsOnly(mineOnly), &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

func (s *Service) DeleteWebsite(ctx context.Context, id int) error {
	return s.api.Delete(ctx, "/websites/"+strconv.Itoa(id), nil)
}

func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryAnswer, error) {
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var answer QueryAnswer
	if err := s.api.PostJSON(ctx, "/query", req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func myDocsOnly(mineOnly bool) url.Values {
	return url.Values{"my_docs_only": {strconv.FormatBool(mineOnly)}}
}

// decodeWebsites accepts either a list of websites or a single object, as the scrape
// endpoint answers with one entry per URL or a summary.
func decodeWebsites(raw json.RawMessage) ([]Website, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []Website
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single Website
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []Website{single}, nil
}
