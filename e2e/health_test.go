package e2e

import (
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", result["status"])
	}
}

func TestAuthVerify_ValidToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, customerToken(t), http.MethodGet, "/auth/verify", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("X-User-Id"); got != "customer-1" {
		t.Errorf("expected X-User-Id customer-1, got %q", got)
	}
	if got := resp.Header.Get("X-User-Profile-Id"); got != "6" {
		t.Errorf("expected X-User-Profile-Id 6, got %q", got)
	}
	if got := resp.Header.Get("X-User-Role"); got != "customer" {
		t.Errorf("expected X-User-Role customer, got %q", got)
	}
}

func TestAuthVerify_InvalidToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/auth/verify", "", map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestAPI_RequiresAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/jobs", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
	assertErrorCode(t, parseJSON(t, resp), "UNAUTHORIZED")
}
