package middleware

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"
)

const maxInteractionBody = 1 << 20 // 1 MB

// VerifySignature validates the Ed25519 signature on incoming webhook requests.
//
// The signature covers the concatenation of the X-Signature-Timestamp header
// and the exact raw request body; verification must happen on those bytes
// before any JSON decoding. Requests that fail verification get 401 with an
// empty body, which tells the platform to reject the endpoint registration.
func VerifySignature(publicKey ed25519.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(publicKey) != ed25519.PublicKeySize {
				writeJSONError(w, http.StatusServiceUnavailable, "verification key not configured")
				return
			}

			sig, err := hex.DecodeString(r.Header.Get("X-Signature-Ed25519"))
			if err != nil || len(sig) != ed25519.SignatureSize {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			timestamp := r.Header.Get("X-Signature-Timestamp")
			if timestamp == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			r.Body.Close()

			msg := make([]byte, 0, len(timestamp)+len(body))
			msg = append(msg, timestamp...)
			msg = append(msg, body...)
			if !ed25519.Verify(publicKey, msg, sig) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			// hand the verified raw bytes down to the handler
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
