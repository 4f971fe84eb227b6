package apiclient

import (
	"net/http"
	"net/url"
	"slices"
)

// Attempt marks whether a request is on its first send or its single retry.
type Attempt int

const (
	Fresh Attempt = iota
	Retried
)

func (a Attempt) String() string {
	if a == Retried {
		return "retried"
	}
	return "fresh"
}

// Request describes one logical call to the backend. The body is held as bytes so the
// request can be sent again unchanged.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
	ID      string // X-Request-ID, shared by a request and its retry
	Attempt Attempt

	sentAccessToken string
}

// SentAccessToken returns the access token the auth injector attached, if any.
func (r *Request) SentAccessToken() string {
	return r.sentAccessToken
}

// Retry returns a copy of the request marked Retried.
func (r *Request) Retry() *Request {
	retry := r.clone()
	retry.Attempt = Retried
	return retry
}

func (r *Request) clone() *Request {
	c := *r
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = slices.Clone(v)
		}
	}
	c.Header = r.Header.Clone()
	c.Body = slices.Clone(r.Body)
	return &c
}
