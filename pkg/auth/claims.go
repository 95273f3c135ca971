package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   enums.Role
	LLP    *string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. LLP is set
// only for vessel owners, who are scoped to their own permit.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	OrgID  uuid.UUID  `json:"org_id"`
	Role   enums.Role `json:"role"`
	LLP    *string    `json:"llp,omitempty"`
	jwt.RegisteredClaims
}
