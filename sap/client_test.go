package sap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenServer(t *testing.T, counter *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(counter, 1)
		if r.FormValue("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}))
}

func TestGetTokenCachesUntilExpiry(t *testing.T) {
	var tokenCalls int32
	oauth := tokenServer(t, &tokenCalls)
	defer oauth.Close()

	client := NewClient("http://unused", oauth.URL, Credentials{ClientID: "id", ClientSecret: "secret"})

	for i := 0; i < 3; i++ {
		token, err := client.GetToken(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "test-token" {
			t.Errorf("unexpected token: %s", token)
		}
	}

	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}

func TestGetTokenRejectsBadResponse(t *testing.T) {
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":""}`))
	}))
	defer oauth.Close()

	client := NewClient("http://unused", oauth.URL, Credentials{})
	if _, err := client.GetToken(context.Background()); err == nil {
		t.Fatal("expected error for empty access token")
	}
}

func TestCallRemoteHandshake(t *testing.T) {
	var tokenCalls int32
	oauth := tokenServer(t, &tokenCalls)
	defer oauth.Close()

	var gotCSRF, gotAuth string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if r.Header.Get("X-CSRF-Token") != "Fetch" {
				t.Errorf("csrf fetch header = %q, want Fetch", r.Header.Get("X-CSRF-Token"))
			}
			w.Header().Set("x-csrf-token", "csrf-123")
			return
		}
		gotCSRF = r.Header.Get("X-CSRF-Token")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"BAPI_TEST.Response":{"RESULT":"ok"}}`))
	}))
	defer gateway.Close()

	client := NewClient(gateway.URL, oauth.URL, Credentials{ClientID: "id", ClientSecret: "secret"})

	raw, err := client.CallRemote(context.Background(), "BAPI_TEST", map[string]string{"KEY": "VALUE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotCSRF != "csrf-123" {
		t.Errorf("POST csrf token = %q, want csrf-123", gotCSRF)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("authorization = %q", gotAuth)
	}

	env := Envelope(raw, "BAPI_TEST")
	if env == nil {
		t.Fatal("missing response envelope")
	}
}

func TestCallRemoteErrorKinds(t *testing.T) {
	var tokenCalls int32
	oauth := tokenServer(t, &tokenCalls)
	defer oauth.Close()

	tests := []struct {
		name   string
		status int
		body   string
		want   ErrKind
	}{
		{"forbidden", http.StatusForbidden, `denied`, ErrKindPermission},
		{"server error", http.StatusInternalServerError, `boom`, ErrKindRemote},
		{"empty body", http.StatusOK, ``, ErrKindEmpty},
		{"malformed body", http.StatusOK, `<html>`, ErrKindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.Header().Set("x-csrf-token", "csrf")
					return
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer gateway.Close()

			client := NewClient(gateway.URL, oauth.URL, Credentials{})

			_, err := client.CallRemote(context.Background(), "BAPI_TEST", nil)
			var callErr *CallError
			if !errors.As(err, &callErr) {
				t.Fatalf("expected CallError, got %v", err)
			}
			if callErr.Kind != tt.want {
				t.Errorf("kind = %s, want %s", callErr.Kind, tt.want)
			}
		})
	}
}

func TestCallRemoteAuthFailure(t *testing.T) {
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer oauth.Close()

	client := NewClient("http://unused", oauth.URL, Credentials{})

	_, err := client.CallRemote(context.Background(), "BAPI_TEST", nil)
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if callErr.Kind != ErrKindAuth {
		t.Errorf("kind = %s, want %s", callErr.Kind, ErrKindAuth)
	}
}
