package auth

import (
	"testing"
	"time"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

func TestMintAndParseDeviceToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "pantrylog-device",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	payload := DeviceTokenPayload{
		UserID: "user-1",
		Tier:   enums.SubscriptionTierPlus,
	}

	token, err := MintDeviceToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint device token: %v", err)
	}

	claims, err := ParseDeviceToken(cfg, token)
	if err != nil {
		t.Fatalf("parse device token: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Fatalf("expected user_id user-1, got %s", claims.UserID)
	}
	if claims.Tier != enums.SubscriptionTierPlus {
		t.Fatalf("unexpected tier %s", claims.Tier)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.Expiration())
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp.UTC(), claims.ExpiresAt.UTC())
	}
}

func TestParseDeviceTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "pantrylog-device",
		ExpirationMinutes: 10,
	}
	token, err := MintDeviceToken(cfg, time.Now(), DeviceTokenPayload{
		UserID: "user-1",
		Tier:   enums.SubscriptionTierFree,
	})
	if err != nil {
		t.Fatalf("mint device token: %v", err)
	}

	other := config.JWTConfig{Secret: "different", Issuer: cfg.Issuer, ExpirationMinutes: 10}
	if _, err := ParseDeviceToken(other, token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestMintDeviceTokenRejectsInvalidInput(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "iss", ExpirationMinutes: 10}

	if _, err := MintDeviceToken(cfg, time.Now(), DeviceTokenPayload{Tier: enums.SubscriptionTierFree}); err == nil {
		t.Fatal("expected missing user id to be rejected")
	}
	if _, err := MintDeviceToken(cfg, time.Now(), DeviceTokenPayload{UserID: "u", Tier: "gold"}); err == nil {
		t.Fatal("expected invalid tier to be rejected")
	}
}
