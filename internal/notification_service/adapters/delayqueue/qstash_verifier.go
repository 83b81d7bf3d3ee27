package delayqueue

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSignature is returned when an Upstash-Signature does not verify
// against any configured signing key.
var ErrInvalidSignature = errors.New("invalid qstash signature")

const qstashIssuer = "Upstash"

// SignatureClaims are the claims QStash signs into every callback.
type SignatureClaims struct {
	Body string `json:"body"` // base64url SHA-256 of the request body
	jwt.RegisteredClaims
}

// SignatureVerifier checks Upstash-Signature JWTs with the current and next signing keys.
type SignatureVerifier struct {
	currentKey string
	nextKey    string
	leeway     time.Duration
}

func NewSignatureVerifier(currentKey, nextKey string) *SignatureVerifier {
	return &SignatureVerifier{currentKey: currentKey, nextKey: nextKey, leeway: 5 * time.Second}
}

// Enabled reports whether any signing key is configured.
func (v *SignatureVerifier) Enabled() bool {
	return v != nil && (v.currentKey != "" || v.nextKey != "")
}

// Verify validates signature for body. When url is non-empty it must match the token subject.
func (v *SignatureVerifier) Verify(signature string, body []byte, url string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}

	var lastErr error
	for _, key := range []string{v.currentKey, v.nextKey} {
		if key == "" {
			continue
		}
		if lastErr = verifyWithKey(signature, key, body, url, v.leeway); lastErr == nil {
			return nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no signing key configured")
	}
	return fmt.Errorf("%w: %v", ErrInvalidSignature, lastErr)
}

func verifyWithKey(signature, key string, body []byte, url string, leeway time.Duration) error {
	var claims SignatureClaims
	_, err := jwt.ParseWithClaims(signature, &claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(qstashIssuer),
		jwt.WithLeeway(leeway),
	)
	if err != nil {
		return err
	}

	if url != "" && claims.Subject != url {
		return fmt.Errorf("subject %q does not match %q", claims.Subject, url)
	}

	sum := sha256.Sum256(body)
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(claims.Body, "=") != want {
		return errors.New("body hash mismatch")
	}
	return nil
}

// Sign produces a QStash-style signature. It is used by tooling and tests that
// stand in for the queue.
func Sign(key, url string, body []byte, now time.Time) (string, error) {
	sum := sha256.Sum256(body)
	claims := SignatureClaims{
		Body: base64.URLEncoding.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    qstashIssuer,
			Subject:   url,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}
