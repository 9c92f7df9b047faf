package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dfcarvalho/radiostock-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "radiostock-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	payload := AccessTokenPayload{
		UserID:      uuid.New(),
		Email:       "operator@example.com",
		DisplayName: "Operator",
		Permissions: []string{"saida", "entrada"},
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != payload.UserID {
		t.Fatalf("expected user id %s got %s", payload.UserID, claims.UserID)
	}
	if claims.Email != payload.Email {
		t.Fatalf("expected email %s got %s", payload.Email, claims.Email)
	}
	if len(claims.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(claims.Permissions))
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintRequiresEmail(t *testing.T) {
	cfg := testJWTConfig()
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "operator@example.com",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "operator@example.com",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestIdentityFromClaimsCopiesPermissions(t *testing.T) {
	claims := &AccessTokenClaims{
		UserID:      uuid.New(),
		Email:       "operator@example.com",
		Permissions: []string{"admin"},
	}
	identity := IdentityFromClaims(claims)
	identity.Permissions[0] = "mutated"
	if claims.Permissions[0] != "admin" {
		t.Fatal("identity must not alias claim permissions")
	}
}
