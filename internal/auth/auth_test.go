package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	userID = "7f1c2a3b-4d5e-4f60-8a9b-0c1d2e3f4a5b"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return s
}

func claims(sub, iss string, exp time.Time) Claims {
	return Claims{
		Email: "ana@label.co",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    iss,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier(secret, "https://auth.example")
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", sign(t, jwt.SigningMethodHS256, []byte(secret), claims(userID, "https://auth.example", future)), false},
		{"empty", "", true},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), claims(userID, "https://auth.example", future)), true},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), claims(userID, "https://auth.example", time.Now().Add(-time.Minute))), true},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, []byte(secret), claims(userID, "evil", future)), true},
		{"subject not uuid", sign(t, jwt.SigningMethodHS256, []byte(secret), claims("admin", "https://auth.example", future)), true},
		{"other alg", sign(t, jwt.SigningMethodHS512, []byte(secret), claims(userID, "https://auth.example", future)), true},
		{"garbage", "not.a.jwt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, id.UserID)
			assert.Equal(t, "ana@label.co", id.Email)
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(" ", "")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"ana@label.co", " luis.perez+firma@mail.example.com ", "a_b@x.io"}
	invalid := []string{"", "ana", "ana@", "@label.co", "ana@label", "ana..b@label.co", "ana @label.co"}
	for _, s := range valid {
		assert.True(t, IsValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidEmail(s), s)
	}
}
