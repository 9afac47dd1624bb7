package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "feria-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()

	signed, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID:  userID,
		Role:    enums.UserRoleSeller,
		StoreID: &storeID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseAccessToken(testJWTConfig(), signed)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s vs %s", claims.UserID, userID)
	}
	if claims.Role != enums.UserRoleSeller {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if claims.StoreID == nil || *claims.StoreID != storeID {
		t.Fatal("store id must survive the round trip")
	}
	if claims.ID == "" {
		t.Fatal("jti must be populated")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	other := testJWTConfig()
	other.Secret = "different"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	signed, err := MintAccessToken(testJWTConfig(), past, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBuyer,
		JTI:    "fixed-jti",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	if _, err := ParseAccessToken(testJWTConfig(), signed); err == nil {
		t.Fatal("expired token should fail strict parse")
	}

	claims, err := ParseAccessTokenAllowExpired(testJWTConfig(), signed)
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if claims.ID != "fixed-jti" {
		t.Fatalf("jti mismatch: %q", claims.ID)
	}
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("superuser"),
	})
	if err == nil {
		t.Fatal("expected role validation failure")
	}
}
