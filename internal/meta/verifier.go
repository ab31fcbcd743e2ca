package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="

	modeSubscribe = "subscribe"
)

var (
	ErrInvalidMode              = errors.New("invalid hub.mode")
	ErrVerifyTokenNotConfigured = errors.New("META_VERIFY_TOKEN not configured")
	ErrInvalidVerifyToken       = errors.New("invalid verify token")
	ErrMissingChallenge         = errors.New("missing hub.challenge")

	ErrSecretNotConfigured = errors.New("META_APP_SECRET not configured")
	ErrMissingSignature    = errors.New("missing " + SignatureHeader)
	ErrMalformedSignature  = errors.New("malformed " + SignatureHeader)
	ErrInvalidSignature    = errors.New("invalid webhook signature")
)

// Verifier authenticates Meta webhook traffic: the subscribe handshake and
// the HMAC signature on every delivery.
type Verifier struct {
	verifyToken string
	appSecret   string
}

func NewVerifier(verifyToken, appSecret string) *Verifier {
	return &Verifier{
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

// VerifyHandshake answers the hub.mode=subscribe challenge. On success the
// challenge is returned verbatim for the caller to echo.
func (v *Verifier) VerifyHandshake(mode, token, challenge string) (string, error) {
	if mode != modeSubscribe {
		return "", ErrInvalidMode
	}
	if v.verifyToken == "" {
		return "", ErrVerifyTokenNotConfigured
	}
	if !hmac.Equal([]byte(token), []byte(v.verifyToken)) {
		return "", ErrInvalidVerifyToken
	}
	if challenge == "" {
		return "", ErrMissingChallenge
	}
	return challenge, nil
}

// VerifySignature checks header ("sha256=<hex>") against the HMAC-SHA256 of
// the raw body keyed with the app secret.
func (v *Verifier) VerifySignature(body []byte, header string) error {
	if v.appSecret == "" {
		return ErrSecretNotConfigured
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrMalformedSignature
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil || len(provided) != sha256.Size {
		return ErrMalformedSignature
	}

	if !hmac.Equal(provided, Sign(v.appSecret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureHeaderValue formats a header value the way Meta sends it.
func SignatureHeaderValue(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}
