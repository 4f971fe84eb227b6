package training

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
)

// MaxWebsiteURLs is the number of URLs accepted by one scrape request.
const MaxWebsiteURLs = 5

// DefaultTopK is the number of chunks retrieved for a query when none is given.
const DefaultTopK = 5

type UploadResponse struct {
	ID         int    `json:"id"`
	Filename   string `json:"filename"`
	TenantCode string `json:"tenant_code"`
	CreatedAt  string `json:"created_at"`
}

type Document struct {
	ID           int     `json:"id"`
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	CreatedAt    string  `json:"created_at"`
	Status       string  `json:"status,omitempty"`
	UploaderID   int     `json:"uploader_id"`
	NumChunks    int     `json:"num_chunks"`
	ErrorMessage *string `json:"error_message"`
}

type Website struct {
	ID           int     `json:"id"`
	URL          string  `json:"url"`
	Status       string  `json:"status,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UploaderID   int     `json:"uploader_id"`
	NumChunks    int     `json:"num_chunks"`
	ErrorMessage *string `json:"error_message"`
}

type ScrapeRequest struct {
	URLs []string `json:"urls"`
}

// NewScrapeRequest drops blank entries and validates the rest.
func NewScrapeRequest(urls []string) (ScrapeRequest, error) {
	req := ScrapeRequest{}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			req.URLs = append(req.URLs, u)
		}
	}
	return req, req.Validate()
}

func (r ScrapeRequest) Validate() error {
	if len(r.URLs) == 0 {
		return fmt.Errorf("%w: at least one URL is required", apperrors.ErrInvalidRequest)
	}
	if len(r.URLs) > MaxWebsiteURLs {
		return fmt.Errorf("%w: at most %d URLs per request", apperrors.ErrInvalidRequest, MaxWebsiteURLs)
	}
	for _, raw := range r.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: invalid website URL %q", apperrors.ErrInvalidRequest, raw)
		}
	}
	return nil
}

type QueryRequest struct {
	Question   string `json:"question"`
	TopK       int    `json:"top_k,omitempty"`
	UserFilter bool   `json:"user_filter"` // Restrict retrieval to the caller's own uploads
}

func (r QueryRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: question is required", apperrors.ErrInvalidRequest)
	}
	if r.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", apperrors.ErrInvalidRequest)
	}
	return nil
}

type QueryAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is a retrieved chunk cited by an answer. The backend sends either an object or
// a bare string, which is kept as Text.
type Source struct {
	DocumentID int     `json:"document_id,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	URL        string  `json:"url,omitempty"`
	Text       string  `json:"text,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

func (s *Source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Source{Text: text}
		return nil
	}
	type plain Source
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Source(p)
	return nil
}

// Label is a short human readable name for the source.
func (s Source) Label() string {
	switch {
	case s.Filename != "":
		return s.Filename
	case s.URL != "":
		return s.URL
	}
	return s.Text
}
