package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type staticCredentials map[string]string

func (s staticCredentials) Credential(path string) string {
	if token, ok := s[path]; ok {
		return token
	}
	return s["*"]
}

func TestDoSendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(requestIDHeader)
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		if r.URL.Path != "/api/cart/add" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"totalQuantity":3}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL + "/api/", Credentials: staticCredentials{"*": "tok-1"}})
	var out struct {
		TotalQuantity int `json:"totalQuantity"`
	}
	err := client.Do(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "cart/add",
		Body:   map[string]interface{}{"productId": "p1", "quantity": 3},
		Auth:   true,
	}, &out)
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if out.TotalQuantity != 3 {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("request id header missing")
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type: %q", gotContentType)
	}
	if gotBody["productId"] != "p1" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestDoAuthWithoutCredentialSkipsNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	fired := 0
	client.OnUnauthorized(func() { fired++ })

	err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/cart", Auth: true}, nil)
	if !IsKind(err, KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("network should not be touched")
	}
	if fired != 1 {
		t.Fatalf("unauthorized hook should fire once, got %d", fired)
	}
}

func TestDoPublicCallOmitsHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	if err := client.Do(context.Background(), Call{Method: http.MethodPost, Path: "/user/login"}, nil); err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("authorization header should be absent, got %q", gotAuth)
	}
}

func TestDoClassifiesStatus(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		kind    Kind
		message string
	}{
		{http.StatusUnauthorized, `{"message":"token expired"}`, KindUnauthorized, "token expired"},
		{http.StatusForbidden, ``, KindForbidden, ""},
		{http.StatusNotFound, `{"message":"Product not found"}`, KindNotFound, "Product not found"},
		{http.StatusConflict, `{"message":"Only 2 left in stock"}`, KindConflict, "Only 2 left in stock"},
		{http.StatusBadRequest, `{"error":"quantity must be at least 1"}`, KindConflict, "quantity must be at least 1"},
		{http.StatusUnprocessableEntity, `plain text reason`, KindConflict, "plain text reason"},
		{http.StatusInternalServerError, `<html>oops</html>`, KindServerError, ""},
		{http.StatusBadGateway, ``, KindServerError, ""},
		{http.StatusNotModified, ``, KindServerError, ""},
		{http.StatusMultipleChoices, ``, KindServerError, ""},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		client := New(Options{BaseURL: server.URL, Credentials: staticCredentials{"*": "tok"}})
		fired := 0
		client.OnUnauthorized(func() { fired++ })

		err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/cart", Auth: true}, nil)
		server.Close()

		gwErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("status %d: expected *Error, got %T %v", tc.status, err, err)
		}
		if gwErr.Kind != tc.kind || gwErr.Status != tc.status || gwErr.Message != tc.message {
			t.Fatalf("status %d: unexpected error %+v", tc.status, gwErr)
		}
		wantFired := 0
		if tc.kind == KindUnauthorized {
			wantFired = 1
		}
		if fired != wantFired {
			t.Fatalf("status %d: hook fired %d times", tc.status, fired)
		}
	}
}

func TestDoMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cartProducts":`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	var out map[string]interface{}
	err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/products"}, &out)
	if !IsKind(err, KindServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestDoNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(Options{BaseURL: url, Timeout: time.Second})
	err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/products"}, nil)
	if !IsKind(err, KindNetworkFailure) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestDoCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := New(Options{BaseURL: server.URL})
	err := client.Do(ctx, Call{Method: http.MethodGet, Path: "/products"}, nil)
	if !IsKind(err, KindNetworkFailure) || !IsCanceled(err) {
		t.Fatalf("expected canceled network failure, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(&Error{Kind: KindConflict, Message: "Only 1 left"}); got != "Only 1 left" {
		t.Fatalf("conflict message should be verbatim, got %q", got)
	}
	if got := UserMessage(&Error{Kind: KindServerError, Message: "sql: no rows"}); got == "sql: no rows" {
		t.Fatalf("server error should not leak internal message")
	}
	if got := UserMessage(nil); got != "" {
		t.Fatalf("nil error should have empty message, got %q", got)
	}
}
