package auth

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func signedRequest(t *testing.T, key solana.PrivateKey, body string, at time.Time) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/wallets/w1/transactions", bytes.NewBufferString(body))
	require.NoError(t, Sign(key, req, []byte(body), at))
	return req
}

func TestSignatureAuthenticatorAcceptsValidSignature(t *testing.T) {
	key := newKey(t)
	now := time.Unix(1_700_000_000, 0)
	a := &SignatureAuthenticator{Skew: time.Minute, Now: func() time.Time { return now }}

	body := `{"destination":"x","amount":5}`
	id, err := a.Authenticate(signedRequest(t, key, body, now), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), id)
}

func TestSignatureAuthenticatorRejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	now := time.Unix(1_700_000_000, 0)
	a := &SignatureAuthenticator{Skew: time.Minute, Now: func() time.Time { return now }}

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, key, `{"amount":5}`, now)
		_, err := a.Authenticate(req, []byte(`{"amount":500}`))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong signer", func(t *testing.T) {
		req := signedRequest(t, key, "", now)
		req.Header.Set(HeaderSigner, other.PublicKey().String())
		_, err := a.Authenticate(req, nil)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale", func(t *testing.T) {
		req := signedRequest(t, key, "", now.Add(-2*time.Minute))
		_, err := a.Authenticate(req, nil)
		assert.ErrorIs(t, err, ErrStaleRequest)
	})

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wallets", nil)
		_, err := a.Authenticate(req, nil)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("malformed signer", func(t *testing.T) {
		req := signedRequest(t, key, "", now)
		req.Header.Set(HeaderSigner, "not-base58-0OIl")
		_, err := a.Authenticate(req, nil)
		assert.Error(t, err)
	})
}

func TestHeaderAuthenticator(t *testing.T) {
	key := newKey(t)
	req := httptest.NewRequest(http.MethodGet, "/wallets", nil)

	_, err := HeaderAuthenticator{}.Authenticate(req, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	req.Header.Set(HeaderSigner, key.PublicKey().String())
	id, err := HeaderAuthenticator{}.Authenticate(req, nil)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), id)
}

func TestValidateIdentity(t *testing.T) {
	assert.NoError(t, ValidateIdentity(newKey(t).PublicKey().String()))
	assert.Error(t, ValidateIdentity("alice"))
	assert.Error(t, ValidateIdentity(""))
}

func TestMiddlewarePassesIdentityAndBody(t *testing.T) {
	key := newKey(t)
	now := time.Now()
	body := `{"threshold":2}`

	var gotId, gotBody string
	h := Middleware(NewSignatureAuthenticator(time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotId, _ = IdentityFromContext(r.Context())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, key, body, now))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, key.PublicKey().String(), gotId)
	assert.Equal(t, body, gotBody)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/wallets", nil)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew(t *testing.T) {
	a, err := New(ModeHeader, 0)
	require.NoError(t, err)
	assert.IsType(t, HeaderAuthenticator{}, a)

	a, err = New(ModeSignature, time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &SignatureAuthenticator{}, a)

	_, err = New("bogus", 0)
	assert.Error(t, err)
}
