package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultBaseURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultBaseURL)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_EncodesFieldsAndSurfacesRedirect(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	var gotQuery url.Values
	var gotUserAgent, gotContentType, gotCustom string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/orders/":
			if r.Method == http.MethodPost {
				gotContentType = r.Header.Get("Content-Type")
				gotCustom = r.Header.Get("X-Requested-With")
				_ = r.ParseForm()
				gotForm = r.PostForm
				w.Header().Set("Location", "/orders/42/")
				w.WriteHeader(http.StatusSeeOther)
				return
			}
			gotQuery = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"count":2}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	resp, err := c.Execute(ctx, Request{
		Method: "post",
		Target: "/orders/",
		Header: http.Header{"X-Requested-With": {"XMLHttpRequest"}},
		Fields: url.Values{"a": {"1"}, "csrfmiddlewaretoken": {"tok"}},
	})
	if err != nil {
		t.Fatalf("Execute POST returned error: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther || resp.Redirect != "/orders/42/" {
		t.Fatalf("POST response = %d redirect %q, want 303 /orders/42/", resp.StatusCode, resp.Redirect)
	}
	if !resp.OK() {
		t.Fatalf("OK() = false for redirect")
	}
	if gotForm.Get("a") != "1" || gotForm.Get("csrfmiddlewaretoken") != "tok" {
		t.Fatalf("form = %v, want fields sent verbatim", gotForm)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
	if gotCustom != "XMLHttpRequest" {
		t.Fatalf("custom header = %q", gotCustom)
	}

	resp, err = c.Execute(ctx, Request{Target: "/orders/", Fields: url.Values{"page": {"2"}}})
	if err != nil {
		t.Fatalf("Execute GET returned error: %v", err)
	}
	if gotQuery.Get("page") != "2" {
		t.Fatalf("query = %v, want page=2", gotQuery)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := resp.DecodeJSON(&payload); err != nil || payload.Count != 2 {
		t.Fatalf("DecodeJSON = %+v, %v; want count=2", payload, err)
	}

	if !strings.HasPrefix(gotUserAgent, "steady/") {
		t.Fatalf("User-Agent = %q, want steady/*", gotUserAgent)
	}
}

func TestClient_StatusesAreResponsesNotErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busy":
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case "/boom":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	tests := []struct {
		target     string
		wantStatus int
		wantErr    bool
	}{
		{"/busy", http.StatusTooManyRequests, true},
		{"/boom", http.StatusInternalServerError, true},
		{"/missing", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		resp, err := c.Execute(context.Background(), Request{Target: tt.target})
		if err != nil {
			t.Fatalf("Execute(%s) returned error: %v", tt.target, err)
		}
		if resp.StatusCode != tt.wantStatus {
			t.Fatalf("Execute(%s) status = %d, want %d", tt.target, resp.StatusCode, tt.wantStatus)
		}
		statusErr := CheckStatus(resp)
		if (statusErr != nil) != tt.wantErr {
			t.Fatalf("CheckStatus(%d) = %v, wantErr %v", resp.StatusCode, statusErr, tt.wantErr)
		}
	}
}

func TestClient_NetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Execute(context.Background(), Request{Target: "/health/"})
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("Execute error = %v, want ErrNetworkUnavailable", err)
	}
}

func TestClient_DeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Execute(ctx, Request{Target: "/slow"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute error = %v, want ErrTimeout", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantOK   bool
		wantSev  Severity
		contains string
	}{
		{"rate limit", &StatusError{Status: 429}, true, SeverityWarning, "please wait"},
		{"server error", &StatusError{Status: 503}, true, SeverityError, "Server error"},
		{"network", ErrNetworkUnavailable, true, SeverityError, "check your connection"},
		{"wrapped timeout", errors.Join(errors.New("ctx"), ErrTimeout), true, SeverityError, "timed out"},
		{"client error", &StatusError{Status: 404}, false, SeverityInfo, ""},
		{"foreign", errors.New("other"), false, SeverityInfo, ""},
		{"nil", nil, false, SeverityInfo, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("Classify ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Severity != tt.wantSev || !strings.Contains(got.Message, tt.contains) {
				t.Fatalf("Classify = %+v, want severity %v containing %q", got, tt.wantSev, tt.contains)
			}
		})
	}
}

func TestRequestClone_IsDeep(t *testing.T) {
	orig := Request{Fields: url.Values{"a": {"1"}}, Header: http.Header{"X": {"y"}}, Body: []byte("b")}
	dup := orig.Clone()
	dup.Fields["a"][0] = "changed"
	dup.Header.Set("X", "z")
	dup.Body[0] = 'c'
	if orig.Fields.Get("a") != "1" || orig.Header.Get("X") != "y" || string(orig.Body) != "b" {
		t.Fatalf("Clone shares storage with original: %+v", orig)
	}
}
