package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// The registered ID (jti) names the server-side session; a token whose session is gone is
// rejected even if its signature and expiry are still valid.
type Claims struct {
	jwt.RegisteredClaims

	Username  string `json:"username"`
	AccountID string `json:"account_id"`
}
