package util

import (
	"testing"
	"time"

	"testria_backend/internal/model"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{Username: "alice"}
	user.ID = 7

	token, err := GenerateJWT(user, "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestActionTokenInvalidatedByStateChange(t *testing.T) {
	user := &model.User{Username: "bob", Email: "bob@example.com", Password: "hash-1"}
	user.ID = 3

	verify, err := GenerateActionToken(user, PurposeVerifyEmail, "s", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !CheckActionToken(user, PurposeVerifyEmail, verify, "s") {
		t.Fatal("expected fresh verification token to be valid")
	}
	if CheckActionToken(user, PurposePasswordReset, verify, "s") {
		t.Fatal("token must not be accepted for another purpose")
	}

	user.IsVerified = true
	if CheckActionToken(user, PurposeVerifyEmail, verify, "s") {
		t.Fatal("verification token must be single use")
	}

	reset, _ := GenerateActionToken(user, PurposePasswordReset, "s", time.Hour)
	user.Password = "hash-2"
	if CheckActionToken(user, PurposePasswordReset, reset, "s") {
		t.Fatal("reset token must be invalid after the password changes")
	}
}

func TestActionTokenExpires(t *testing.T) {
	user := &model.User{Username: "carol"}
	user.ID = 1
	token, _ := GenerateActionToken(user, PurposePasswordReset, "s", -time.Minute)
	if CheckActionToken(user, PurposePasswordReset, token, "s") {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestUIDRoundTrip(t *testing.T) {
	uid := EncodeUID(42)
	id, err := DecodeUID(uid)
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	if _, err := DecodeUID("!!"); err == nil {
		t.Fatal("expected malformed uid to fail")
	}
}

func TestRefreshTokenSurvivesLoginButNotPasswordChange(t *testing.T) {
	user := &model.User{Username: "dave", Password: "hash-1"}
	user.ID = 9

	refresh, err := GenerateActionToken(user, PurposeRefresh, "s", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, ok := ActionTokenSubject(refresh, PurposeRefresh, "s")
	if !ok || id != 9 {
		t.Fatalf("subject = %d, %v", id, ok)
	}
	if _, ok := ActionTokenSubject(refresh, PurposePasswordReset, "s"); ok {
		t.Fatal("refresh token must not pass as another purpose")
	}

	user.LastLogin = time.Now()
	if !CheckActionToken(user, PurposeRefresh, refresh, "s") {
		t.Fatal("a later login must not revoke the refresh token")
	}
	user.Password = "hash-2"
	if CheckActionToken(user, PurposeRefresh, refresh, "s") {
		t.Fatal("refresh token must be revoked by a password change")
	}
}

func TestParseJWTRejectsActionToken(t *testing.T) {
	user := &model.User{Username: "erin"}
	user.ID = 4
	token, _ := GenerateActionToken(user, PurposeRefresh, "s", time.Hour)
	if _, err := ParseJWT(token, "s"); err == nil {
		t.Fatal("action token must not be accepted as an access token")
	}
}
