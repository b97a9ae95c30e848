package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "velvetrow",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Role: "editor"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != "editor" {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "velvetrow",
		ExpirationMinutes: 10,
	}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "admin"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	wrong := cfg
	wrong.Secret = "other"
	if _, err := ParseAccessToken(wrong, token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "velvetrow",
		ExpirationMinutes: 10,
	}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "admin"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch failure")
	}
}

func TestMintAccessTokenRequiresConfig(t *testing.T) {
	now := time.Now()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: "admin"}

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "velvetrow", ExpirationMinutes: 10}, now, payload); err == nil {
		t.Fatal("expected error without secret")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s", ExpirationMinutes: 10}, now, payload); err == nil {
		t.Fatal("expected error without issuer")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "velvetrow"}, now, payload); err == nil {
		t.Fatal("expected error without expiration")
	}
}
