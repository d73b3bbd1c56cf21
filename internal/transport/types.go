package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Transport is the fetch-like network primitive the coordinator wraps.
type Transport interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a plain function to Transport.
type Func func(ctx context.Context, req Request) (*Response, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Request describes one outbound call. Fields are sent url-encoded in the body
// for methods that carry one and in the query string otherwise; Body, when
// set, takes precedence over Fields.
type Request struct {
	Method      string
	Target      string
	Header      http.Header
	Fields      url.Values
	Body        []byte
	ContentType string
	Label       string
}

// NormalizedMethod returns the upper-cased method, defaulting to GET.
func (r Request) NormalizedMethod() string {
	m := strings.ToUpper(strings.TrimSpace(r.Method))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// Clone returns a deep copy so queued requests are isolated from callers.
func (r Request) Clone() Request {
	dup := r
	if r.Header != nil {
		dup.Header = r.Header.Clone()
	}
	if r.Fields != nil {
		dup.Fields = make(url.Values, len(r.Fields))
		for k, v := range r.Fields {
			dup.Fields[k] = append([]string(nil), v...)
		}
	}
	if r.Body != nil {
		dup.Body = append([]byte(nil), r.Body...)
	}
	return dup
}

// Response is the settled result of a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Redirect holds the Location target of a 3xx response.
	Redirect string
}

// OK reports whether the status is in the 2xx or 3xx range.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 400
}
