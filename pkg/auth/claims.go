package auth

import (
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Principal types.Principal
	Role      enums.UserRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued by the identity bridge.
type AccessTokenClaims struct {
	Principal types.Principal `json:"principal"`
	Role      enums.UserRole  `json:"role"`
	jwt.RegisteredClaims
}
