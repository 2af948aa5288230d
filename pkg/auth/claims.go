package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// DeviceTokenPayload captures the data available when minting a device JWT.
type DeviceTokenPayload struct {
	UserID string
	Tier   enums.SubscriptionTier
	JTI    string
}

// DeviceTokenClaims is the typed JWT the sync engine presents to the cloud.
type DeviceTokenClaims struct {
	UserID string                 `json:"user_id"`
	Tier   enums.SubscriptionTier `json:"tier"`
	jwt.RegisteredClaims
}
