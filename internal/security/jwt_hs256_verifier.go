package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// clockLeeway absorbs small drift between the club portal that mints
// tokens and this service.
const clockLeeway = 30 * time.Second

type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

// memberClaims is the shape the club portal puts in access tokens:
// uid carries the member id, role is "member" or "admin".
type memberClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (v *HS256Verifier) VerifyAccessToken(token string) (TokenClaims, error) {
	var mc memberClaims
	_, err := jwt.ParseWithClaims(token, &mc,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}

	// A signed token without a member id is useless to us.
	if strings.TrimSpace(mc.UserID) == "" {
		return TokenClaims{}, ErrClaimsMissing
	}

	role := mc.Role
	if role == "" {
		role = RoleMember
	}

	exp := time.Time{}
	if mc.ExpiresAt != nil {
		exp = mc.ExpiresAt.Time
	}

	return TokenClaims{
		UserID:  mc.UserID,
		Role:    role,
		Exp:     exp,
		Issuer:  mc.Issuer,
		Subject: mc.Subject,
	}, nil
}
