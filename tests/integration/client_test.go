//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type clientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestRegisterAndLogin(t *testing.T) {
	register := map[string]any{
		"name":     "Carolina",
		"email":    "carolina@example.cl",
		"password": "secreto123",
		"phone":    "+56911112222",
	}

	resp := doPost(t, "/api/register", register)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	created := decodeJSON[clientResponse](t, resp)
	if created.Email != "carolina@example.cl" {
		t.Errorf("email: got %q", created.Email)
	}

	// Duplicate email is rejected.
	dup := doPost(t, "/api/register", register)
	defer dup.Body.Close()
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", dup.StatusCode)
	}

	// Login with the right password succeeds.
	login := doPost(t, "/api/login", map[string]string{
		"email":    "carolina@example.cl",
		"password": "secreto123",
	})
	defer login.Body.Close()
	if login.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", login.StatusCode)
	}

	// Wrong password is indistinguishable from unknown email.
	bad := doPost(t, "/api/login", map[string]string{
		"email":    "carolina@example.cl",
		"password": "wrong",
	})
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", bad.StatusCode)
	}
}
