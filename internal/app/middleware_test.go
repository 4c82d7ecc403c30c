package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitKeyPrefersActorHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs", nil)
	req.Header.Set(actorHeader, "42")

	key, err := rateLimitKey(req)
	if err != nil {
		t.Fatalf("rate limit key: %v", err)
	}
	if key != "user:42" {
		t.Fatalf("expected user-scoped key, got %q", key)
	}
}

func TestRateLimitKeyFallsBackToIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs", nil)
	req.RemoteAddr = "203.0.113.7:51234"

	key, err := rateLimitKey(req)
	if err != nil {
		t.Fatalf("rate limit key: %v", err)
	}
	if key != "ip:203.0.113.7" {
		t.Fatalf("expected ip-scoped key, got %q", key)
	}
}

func TestActorIDParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actorID(req) != nil {
		t.Fatalf("missing header must yield nil actor")
	}

	req.Header.Set(actorHeader, "17")
	id := actorID(req)
	if id == nil || *id != 17 {
		t.Fatalf("expected actor 17, got %v", id)
	}

	req.Header.Set(actorHeader, "not-a-number")
	if actorID(req) != nil {
		t.Fatalf("garbage header must yield nil actor")
	}
}

func TestRemoteIPStripsPortAndBrackets(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	if got := remoteIP(req); got != "203.0.113.7" {
		t.Fatalf("expected bare IPv4, got %q", got)
	}

	req.RemoteAddr = "[2001:db8::1]:443"
	if got := remoteIP(req); got != "2001:db8::1" {
		t.Fatalf("expected bare IPv6, got %q", got)
	}
}
