package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/model"
)

func TestHTTPSource_Fetch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"orders":[
			{"id":"o1","price":120,"user_rating":4.5,"distance":2.5},
			{"id":"o2","price":60,"platform_weight":0.9}
		]}`))
	}))
	defer srv.Close()

	s := NewHTTPSource(map[string]PlatformConfig{
		"foodpanda": {BaseURL: srv.URL, Token: "tok", Weight: 1.2},
	}, time.Second)
	orders, err := s.Fetch(context.Background(), "foodpanda")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders got %d", len(orders))
	}
	if orders[0].Platform != "foodpanda" || orders[0].PlatformWeight != 1.2 {
		t.Fatalf("platform tagging wrong: %+v", orders[0])
	}
	// An explicit weight from the payload wins over the configured one.
	if orders[1].PlatformWeight != 0.9 {
		t.Fatalf("payload weight overridden: %+v", orders[1])
	}
}

func TestHTTPSource_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSource(map[string]PlatformConfig{"p": {BaseURL: srv.URL}}, time.Second)
	_, err := s.Fetch(context.Background(), "p")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !dispatch.IsTransient(err) {
		t.Fatalf("5xx must be transient, got %v", err)
	}
}

func TestHTTPSource_ClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewHTTPSource(map[string]PlatformConfig{"p": {BaseURL: srv.URL}}, time.Second)
	_, err := s.Fetch(context.Background(), "p")
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if dispatch.IsTransient(err) {
		t.Fatalf("4xx must not be transient, got %v", err)
	}
}

func TestHTTPSource_UnknownPlatform(t *testing.T) {
	s := NewHTTPSource(nil, time.Second)
	if _, err := s.Fetch(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestHTTPAcceptClient_Accept(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPAcceptClient(map[string]PlatformConfig{"p": {BaseURL: srv.URL}}, time.Second)
	order := model.ScoredOrder{Order: model.Order{ID: "o1", Platform: "p"}}
	if err := c.Accept(context.Background(), order); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if gotPath != "/o1/accept" {
		t.Fatalf("path = %q, want /o1/accept", gotPath)
	}
}

func TestHTTPAcceptClient_TransientClassification(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := NewHTTPAcceptClient(map[string]PlatformConfig{"p": {BaseURL: srv.URL}}, time.Second)
	order := model.ScoredOrder{Order: model.Order{ID: "o1", Platform: "p"}}

	status = http.StatusServiceUnavailable
	if err := c.Accept(context.Background(), order); !dispatch.IsTransient(err) {
		t.Fatalf("503 must be transient, got %v", err)
	}
	status = http.StatusConflict
	if err := c.Accept(context.Background(), order); err == nil || dispatch.IsTransient(err) {
		t.Fatalf("409 must be terminal, got %v", err)
	}
}

func TestStaticSource_TagsPlatform(t *testing.T) {
	s := StaticSource{Orders: map[string][]model.Order{
		"p1": {{ID: "a"}, {ID: "b", Platform: "preset"}},
	}}
	orders, err := s.Fetch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if orders[0].Platform != "p1" {
		t.Fatalf("missing platform tag: %+v", orders[0])
	}
	if orders[1].Platform != "preset" {
		t.Fatalf("preset platform overridden: %+v", orders[1])
	}
}
