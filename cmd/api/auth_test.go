package main

import (
	"net/http"
	"testing"
	"time"
)

func TestRegister(t *testing.T) {
	app, data, _ := newTestApplication(t)
	mux := app.mount()

	payload := map[string]any{
		"username":       "new_student",
		"password":       "secret",
		"full_name":      "New Student",
		"email":          "new@example.com",
		"mobile_number":  "9876543210",
		"institution_id": 1,
		"role":           "student",
	}

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/register", "", payload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}

	created := data.accounts[len(data.accounts)-1]
	if created.Username != "new_student" {
		t.Fatalf("stored username = %q", created.Username)
	}
	if created.MobileNumber != "9876543210" {
		t.Errorf("mobile number not stored: %q", created.MobileNumber)
	}
	if err := created.Password.Compare("secret"); err != nil {
		t.Error("stored password does not match the submitted one")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	payload := map[string]any{
		"username":       "student1", // seeded
		"password":       "whatever",
		"full_name":      "Impostor",
		"email":          "other@example.com",
		"mobile_number":  "1112223334",
		"institution_id": 3,
		"role":           "student",
	}

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/register", "", payload)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rr.Code, rr.Body.String())
	}
}

func TestRegisterUnknownInstitution(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	payload := map[string]any{
		"username":       "orphan",
		"password":       "secret",
		"full_name":      "No School",
		"email":          "orphan@example.com",
		"mobile_number":  "1112223334",
		"institution_id": 99,
		"role":           "student",
	}

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/register", "", payload)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func loginPayload(username, password string) map[string]any {
	return map[string]any{
		"username":         username,
		"password":         password,
		"role":             "student",
		"institution_kind": "school",
		"institution_id":   0,
	}
}

func TestLogin(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "password"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Role         string `json:"role"`
	}
	decodeData(t, rr, &out)
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Error("tokens missing from login response")
	}
	if out.Role != "student" {
		t.Errorf("role = %q, want student", out.Role)
	}
}

func TestLoginFailureIsUndifferentiated(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	wrongPassword := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "nope"))
	unknownUser := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("ghost", "nope"))

	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401 for both", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("failure responses differ:\n%s\n%s", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestLoginExactMatchSemantics(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	cases := []struct {
		name   string
		mutate func(map[string]any)
		wantOK bool
	}{
		{"matching institution id", func(p map[string]any) { p["institution_id"] = 1 }, true},
		{"zero institution id matches any", func(p map[string]any) {}, true},
		{"wrong institution id", func(p map[string]any) { p["institution_id"] = 3 }, false},
		{"wrong kind", func(p map[string]any) { p["institution_kind"] = "college" }, false},
		{"wrong role", func(p map[string]any) { p["role"] = "admin" }, false},
	}

	for _, c := range cases {
		payload := loginPayload("student1", "password")
		c.mutate(payload)
		rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", payload)
		if c.wantOK && rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", c.name, rr.Code)
		}
		if !c.wantOK && rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", c.name, rr.Code)
		}
	}
}

func TestPasswordResetFlow(t *testing.T) {
	app, _, mail := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "1234567890",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d (body %s)", rr.Code, rr.Body.String())
	}

	code := mail.lastCode(t)
	if len(code) != 6 {
		t.Fatalf("emailed code %q is not 6 digits", code)
	}

	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/verify-reset-code", "", map[string]any{
		"username": "student1",
		"code":     code,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify-reset-code status = %d (body %s)", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, mux, http.MethodPut, "/v1/auth/reset-password", "", map[string]any{
		"username":         "student1",
		"password":         "brand-new",
		"confirm_password": "brand-new",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("reset-password status = %d (body %s)", rr.Code, rr.Body.String())
	}

	// Old password is gone, the new one works.
	if rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "password")); rr.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted (status %d)", rr.Code)
	}
	if rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "brand-new")); rr.Code != http.StatusOK {
		t.Errorf("new password rejected (status %d)", rr.Code)
	}
}

func TestResetPasswordRequiresVerifiedCode(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	// Without any prior reset request.
	rr := doJSON(t, mux, http.MethodPut, "/v1/auth/reset-password", "", map[string]any{
		"username":         "student1",
		"password":         "sneaky",
		"confirm_password": "sneaky",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	// With a requested but unverified code.
	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "1234567890",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d", rr.Code)
	}
	rr = doJSON(t, mux, http.MethodPut, "/v1/auth/reset-password", "", map[string]any{
		"username":         "student1",
		"password":         "sneaky",
		"confirm_password": "sneaky",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 before verification", rr.Code)
	}

	// The old password still works.
	if rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "password")); rr.Code != http.StatusOK {
		t.Errorf("password changed without a verified code (status %d)", rr.Code)
	}
}

func TestVerifyResetCodeRejectsBadCodes(t *testing.T) {
	app, _, mail := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "1234567890",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d", rr.Code)
	}

	issued := mail.lastCode(t)
	wrong := "000000"
	if wrong == issued {
		wrong = "000001"
	}

	cases := []string{wrong, "abc123", "12345", "1234567"}
	for _, code := range cases {
		rr := doJSON(t, mux, http.MethodPost, "/v1/auth/verify-reset-code", "", map[string]any{
			"username": "student1",
			"code":     code,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("code %q: status = %d, want 400", code, rr.Code)
		}
	}
}

func expireResetCode(t *testing.T, data *fakeData, username string) {
	t.Helper()
	data.mu.Lock()
	defer data.mu.Unlock()
	for _, a := range data.accounts {
		if a.Username == username {
			a.ResetCodeExpires = time.Now().UTC().Add(-time.Minute)
			return
		}
	}
	t.Fatalf("no account %q", username)
}

func TestVerifyResetCodeRejectsExpiredCode(t *testing.T) {
	app, data, mail := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "1234567890",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d", rr.Code)
	}

	code := mail.lastCode(t)
	expireResetCode(t, data, "student1")

	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/verify-reset-code", "", map[string]any{
		"username": "student1",
		"code":     code,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an expired code", rr.Code)
	}
}

func TestResetPasswordRejectsExpiredCode(t *testing.T) {
	app, data, mail := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "1234567890",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("forgot-password status = %d", rr.Code)
	}

	// Verify in time, then let the window lapse before the final step.
	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/verify-reset-code", "", map[string]any{
		"username": "student1",
		"code":     mail.lastCode(t),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify-reset-code status = %d", rr.Code)
	}

	expireResetCode(t, data, "student1")

	rr = doJSON(t, mux, http.MethodPut, "/v1/auth/reset-password", "", map[string]any{
		"username":         "student1",
		"password":         "late",
		"confirm_password": "late",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 after expiry", rr.Code)
	}

	if rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "password")); rr.Code != http.StatusOK {
		t.Errorf("password changed through an expired reset (status %d)", rr.Code)
	}
}

func TestForgotPasswordUnknownAccount(t *testing.T) {
	app, _, mail := newTestApplication(t)
	mux := app.mount()

	noSuchUser := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "ghost",
		"mobile_number": "1234567890",
	})
	wrongMobile := doJSON(t, mux, http.MethodPost, "/v1/auth/forgot-password", "", map[string]any{
		"username":      "student1",
		"mobile_number": "9999999999",
	})

	if noSuchUser.Code != http.StatusBadRequest || wrongMobile.Code != http.StatusBadRequest {
		t.Fatalf("statuses = %d, %d, want 400 for both", noSuchUser.Code, wrongMobile.Code)
	}
	if noSuchUser.Body.String() != wrongMobile.Body.String() {
		t.Errorf("failure responses differ:\n%s\n%s", noSuchUser.Body.String(), wrongMobile.Body.String())
	}
	if len(mail.sends) != 0 {
		t.Errorf("reset email sent for a failed lookup")
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	app, _, _ := newTestApplication(t)
	mux := app.mount()

	rr := doJSON(t, mux, http.MethodPost, "/v1/auth/login", "", loginPayload("student1", "password"))
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d", rr.Code)
	}
	var tokens struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, rr, &tokens)

	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": tokens.RefreshToken,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d (body %s)", rr.Code, rr.Body.String())
	}

	// The old refresh token was rotated out.
	rr = doJSON(t, mux, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": tokens.RefreshToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh token accepted (status %d)", rr.Code)
	}
}
