package integration

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer signs HS256 tokens in the shape the CeBee backend returns
// from its login endpoint. The admin never verifies them; it only reads the
// expiry.
type tokenIssuer struct {
	secret []byte
	issuer string
}

// newTokenIssuer creates a token issuer with a fresh random secret.
func newTokenIssuer(t *testing.T) *tokenIssuer {
	t.Helper()

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	return &tokenIssuer{secret: secret, issuer: "https://api.test.cebeepredict.com"}
}

// Token creates a signed token for subject that expires after ttl. A
// negative ttl yields a token that has already expired.
func (ti *tokenIssuer) Token(subject string, ttl time.Duration) string {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":  ti.issuer,
		"sub":  subject,
		"role": "admin",
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		panic("sign JWT: " + err.Error())
	}
	return signed
}
