package handler

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetgate/internal/application/verifier"
	"github.com/vetgate/internal/transport/http/middleware"
)

func TestHandle_SignedPingReturnsPong(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	h := NewInteractionHandler(verifier.NewService(verifier.Deps{}))
	srv := middleware.VerifySignature(pub)(http.HandlerFunc(h.Handle))

	body := []byte(`{"type":1}`)
	timestamp := "1700000000"
	sig := ed25519.Sign(priv, append([]byte(timestamp), body...))

	req := httptest.NewRequest(http.MethodPost, "/v1/interactions", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", timestamp)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Type int `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Type)
}

func TestHandle_UnsignedPingRejected(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	h := NewInteractionHandler(verifier.NewService(verifier.Deps{}))
	srv := middleware.VerifySignature(pub)(http.HandlerFunc(h.Handle))

	req := httptest.NewRequest(http.MethodPost, "/v1/interactions", bytes.NewReader([]byte(`{"type":1}`)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandle_MalformedBodyIsBadRequest(t *testing.T) {
	h := NewInteractionHandler(verifier.NewService(verifier.Deps{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/interactions", bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	http.HandlerFunc(h.Handle).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
