package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/chemimartinez77/clubdn-sub002/internal/security"
)

func signHS256(t *testing.T, secret []byte, uid, role string, exp time.Time) string {
	t.Helper()

	jc := jwt.MapClaims{
		"uid":  uid,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
		"iss":  "clubdn",
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestHS256Verifier_VerifyAccessToken(t *testing.T) {
	secret := []byte("supersecret")
	v := security.NewHS256Verifier(string(secret))

	t.Run("valid token", func(t *testing.T) {
		token := signHS256(t, secret, "u1", security.RoleMember, time.Now().Add(1*time.Hour))

		claims, err := v.VerifyAccessToken(token)
		assert.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, security.RoleMember, claims.Role)
		assert.Equal(t, "clubdn", claims.Issuer)
		assert.False(t, claims.IsAdmin())
	})

	t.Run("admin role", func(t *testing.T) {
		token := signHS256(t, secret, "u2", security.RoleAdmin, time.Now().Add(1*time.Hour))

		claims, err := v.VerifyAccessToken(token)
		assert.NoError(t, err)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("expired token", func(t *testing.T) {
		token := signHS256(t, secret, "u1", security.RoleMember, time.Now().Add(-1*time.Minute))

		_, err := v.VerifyAccessToken(token)
		assert.ErrorIs(t, err, security.ErrTokenExpired)
	})

	t.Run("wrong signature", func(t *testing.T) {
		token := signHS256(t, []byte("othersecret"), "u1", security.RoleMember, time.Now().Add(1*time.Hour))

		_, err := v.VerifyAccessToken(token)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := v.VerifyAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("missing uid claim", func(t *testing.T) {
		jc := jwt.MapClaims{
			"role": security.RoleMember,
			"exp":  time.Now().Add(1 * time.Hour).Unix(),
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
		s, _ := tok.SignedString(secret)

		_, err := v.VerifyAccessToken(s)
		assert.ErrorIs(t, err, security.ErrClaimsMissing)
	})

	t.Run("missing exp claim", func(t *testing.T) {
		jc := jwt.MapClaims{"uid": "u1", "role": security.RoleMember}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
		s, _ := tok.SignedString(secret)

		_, err := v.VerifyAccessToken(s)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})

	t.Run("role defaults to member", func(t *testing.T) {
		jc := jwt.MapClaims{
			"uid": "u3",
			"exp": time.Now().Add(1 * time.Hour).Unix(),
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
		s, _ := tok.SignedString(secret)

		claims, err := v.VerifyAccessToken(s)
		assert.NoError(t, err)
		assert.Equal(t, security.RoleMember, claims.Role)
		assert.False(t, claims.IsAdmin())
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		jc := jwt.MapClaims{
			"uid": "u1", "role": security.RoleMember,
			"exp": time.Now().Add(1 * time.Hour).Unix(),
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jc)
		s, _ := tok.SignedString(secret)

		_, err := v.VerifyAccessToken(s)
		assert.ErrorIs(t, err, security.ErrTokenInvalid)
	})
}
