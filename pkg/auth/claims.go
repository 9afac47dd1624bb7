package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Role    enums.UserRole
	StoreID *uuid.UUID
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  uuid.UUID      `json:"user_id"`
	Role    enums.UserRole `json:"role"`
	StoreID *uuid.UUID     `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}
