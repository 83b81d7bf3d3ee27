package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	CalSignatureHeader    = "X-Cal-Signature-256"
	QStashSignatureHeader = "Upstash-Signature"
)

// SignatureVerifier verifies delay-queue callback signatures.
type SignatureVerifier interface {
	Enabled() bool
	Verify(signature string, body []byte, url string) error
}

// CalSignatureMiddleware rejects booking webhooks whose X-Cal-Signature-256 is not the
// hex HMAC-SHA256 of the raw body. An empty secret disables the check.
func CalSignatureMiddleware(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := readBody(w, r, logger)
			if !ok {
				return
			}
			if !validHMAC(secret, body, r.Header.Get(CalSignatureHeader)) {
				logger.WarnContext(r.Context(), "Booking webhook signature verification failed", "remote_addr", r.RemoteAddr)
				http.Error(w, "Webhook signature verification failed", http.StatusUnauthorized)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// ComputeCalSignature returns the hex HMAC-SHA256 of body under secret.
func ComputeCalSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validHMAC(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(ComputeCalSignature(secret, body))
	return hmac.Equal(got, want)
}

// QStashSignatureMiddleware rejects reminder callbacks whose Upstash-Signature does not
// verify. A nil or disabled verifier disables the check.
func QStashSignatureMiddleware(verifier SignatureVerifier, callbackURL string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil || !verifier.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := readBody(w, r, logger)
			if !ok {
				return
			}
			if err := verifier.Verify(r.Header.Get(QStashSignatureHeader), body, callbackURL); err != nil {
				logger.WarnContext(r.Context(), "Reminder callback signature verification failed", "error", err)
				http.Error(w, "Invalid signature", http.StatusUnauthorized)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
