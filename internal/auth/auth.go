package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	HeaderSigner    = "X-Multisig-Signer"
	HeaderTimestamp = "X-Multisig-Timestamp"
	HeaderSignature = "X-Multisig-Signature"

	ModeHeader    = "header"
	ModeSignature = "signature"

	maxBodySize = 1 << 20
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStaleRequest       = errors.New("request timestamp outside allowed window")
)

// Authenticator resolves the caller identity of a request. body is the full
// request body, already read.
type Authenticator interface {
	Authenticate(r *http.Request, body []byte) (string, error)
}

var (
	_ Authenticator = (*HeaderAuthenticator)(nil)
	_ Authenticator = (*SignatureAuthenticator)(nil)
)

// HeaderAuthenticator trusts the signer header as set by an upstream gateway.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request, _ []byte) (string, error) {
	signer := r.Header.Get(HeaderSigner)
	if signer == "" {
		return "", ErrMissingCredentials
	}
	if err := ValidateIdentity(signer); err != nil {
		return "", err
	}
	return signer, nil
}

// SignatureAuthenticator verifies an ed25519 signature by the signer's key
// over SigningMessage.
type SignatureAuthenticator struct {
	Skew time.Duration
	Now  func() time.Time
}

func NewSignatureAuthenticator(skew time.Duration) *SignatureAuthenticator {
	return &SignatureAuthenticator{Skew: skew, Now: time.Now}
}

func (a *SignatureAuthenticator) Authenticate(r *http.Request, body []byte) (string, error) {
	signer := r.Header.Get(HeaderSigner)
	ts := r.Header.Get(HeaderTimestamp)
	sig := r.Header.Get(HeaderSignature)
	if signer == "" || ts == "" || sig == "" {
		return "", ErrMissingCredentials
	}

	pub, err := solana.PublicKeyFromBase58(signer)
	if err != nil {
		return "", fmt.Errorf("invalid signer: %w", err)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp: %w", err)
	}
	if a.Skew > 0 {
		drift := a.Now().Sub(time.Unix(unix, 0))
		if drift < -a.Skew || drift > a.Skew {
			return "", ErrStaleRequest
		}
	}

	signature, err := solana.SignatureFromBase58(sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !signature.Verify(pub, SigningMessage(r.Method, r.URL.Path, ts, body)) {
		return "", ErrInvalidSignature
	}
	return pub.String(), nil
}

// SigningMessage is the byte string a client signs: method, path, timestamp
// and body separated by newlines.
func SigningMessage(method, path, timestamp string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(timestamp)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// Sign produces the three auth headers for a request. Used by the CLIs.
func Sign(key solana.PrivateKey, req *http.Request, body []byte, now time.Time) error {
	ts := strconv.FormatInt(now.Unix(), 10)
	sig, err := key.Sign(SigningMessage(req.Method, req.URL.Path, ts, body))
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set(HeaderSigner, key.PublicKey().String())
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, sig.String())
	return nil
}

// ValidateIdentity accepts base58-encoded ed25519 public keys.
func ValidateIdentity(id string) error {
	if _, err := solana.PublicKeyFromBase58(id); err != nil {
		return fmt.Errorf("not a base58 public key: %w", err)
	}
	return nil
}

// New returns the authenticator for mode.
func New(mode string, skew time.Duration) (Authenticator, error) {
	switch mode {
	case ModeHeader:
		return HeaderAuthenticator{}, nil
	case ModeSignature, "":
		return NewSignatureAuthenticator(skew), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(string)
	return id, ok && id != ""
}

// Middleware authenticates every request and stores the identity on the
// request context. The body is restored for downstream handlers.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
			if err != nil {
				http.Error(w, `{"error":"unreadable body"}`, http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			id, err := a.Authenticate(r, body)
			if err != nil {
				zap.L().Warn("Request authentication failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthenticated","message":"` + errorText(err) + `"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing credentials"
	case errors.Is(err, ErrStaleRequest):
		return "stale request"
	default:
		return "invalid credentials"
	}
}
