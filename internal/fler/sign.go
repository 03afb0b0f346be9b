package fler

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the Fler API mandates HMAC-SHA1
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AuthHeader is the request header carrying the API1 credentials.
const AuthHeader = "X-FLER-AUTHORIZATION"

const authScheme = "API1"

// Credentials identify the caller to the Fler API. They are read once at
// startup and never change for the life of the process.
type Credentials struct {
	PrivateKey []byte
	PublicKey  string
}

// SignedRequest is the per-call material that goes into the auth header.
type SignedRequest struct {
	Method    string
	Timestamp int64
	Path      string
	Token     string
}

// Sign computes the API1 request token. The string to sign is
// method, timestamp and path joined by newlines; the token is the base64
// encoding of the lowercase hex HMAC-SHA1 digest (hex first, then base64).
func Sign(method string, timestamp int64, path string, privateKey []byte) string {
	mac := hmac.New(sha1.New, privateKey)
	mac.Write([]byte(method + "\n" + strconv.FormatInt(timestamp, 10) + "\n" + path))
	digest := hex.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString([]byte(digest))
}

// NewSignedRequest signs one outbound call.
func NewSignedRequest(method string, timestamp int64, path string, privateKey []byte) SignedRequest {
	return SignedRequest{
		Method:    method,
		Timestamp: timestamp,
		Path:      path,
		Token:     Sign(method, timestamp, path, privateKey),
	}
}

// Header returns the X-FLER-AUTHORIZATION value for the given public key.
func (r SignedRequest) Header(publicKey string) string {
	return fmt.Sprintf("%s %s %d %s", authScheme, publicKey, r.Timestamp, r.Token)
}

// ParsedAuth is a decoded X-FLER-AUTHORIZATION header.
type ParsedAuth struct {
	PublicKey string
	Timestamp int64
	Token     string
}

// ParseAuthHeader splits an API1 header into its parts.
func ParseAuthHeader(value string) (ParsedAuth, error) {
	parts := strings.Fields(value)
	if len(parts) != 4 || parts[0] != authScheme {
		return ParsedAuth{}, errors.New("malformed authorization header")
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ParsedAuth{}, fmt.Errorf("parsing authorization timestamp: %w", err)
	}
	return ParsedAuth{PublicKey: parts[1], Timestamp: ts, Token: parts[3]}, nil
}

// Verify reports whether token is the valid signature for the request.
func Verify(method string, timestamp int64, path string, privateKey []byte, token string) bool {
	want := Sign(method, timestamp, path, privateKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}
