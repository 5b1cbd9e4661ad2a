package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// SignedToken describes a download token and the file it unlocks.
type SignedToken struct {
	Token     string
	Subject   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates HMAC signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token binding subject (usually the job id) to a stored path.
func (s *SignedURLSigner) Generate(subject, relPath string) (SignedToken, error) {
	if subject == "" || relPath == "" {
		return SignedToken{}, fmt.Errorf("subject and path required")
	}
	if len(s.secret) == 0 {
		return SignedToken{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	subjectPart := base64.RawURLEncoding.EncodeToString([]byte(subject))
	pathPart := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	expPart := strconv.FormatInt(expiresAt.Unix(), 10)

	token := strings.Join([]string{subjectPart, expPart, pathPart, s.sign(subjectPart, expPart, pathPart)}, ".")
	return SignedToken{Token: token, Subject: subject, Path: relPath, ExpiresAt: expiresAt}, nil
}

// Parse validates a token and returns the embedded metadata.
func (s *SignedURLSigner) Parse(token string) (SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedToken{}, ErrTokenMalformed
	}
	subjectPart, expPart, pathPart, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(subjectPart, expPart, pathPart)), []byte(signature)) {
		return SignedToken{}, ErrTokenSignature
	}
	subject, err := base64.RawURLEncoding.DecodeString(subjectPart)
	if err != nil {
		return SignedToken{}, ErrTokenMalformed
	}
	path, err := base64.RawURLEncoding.DecodeString(pathPart)
	if err != nil {
		return SignedToken{}, ErrTokenMalformed
	}
	expUnix, err := strconv.ParseInt(expPart, 10, 64)
	if err != nil {
		return SignedToken{}, ErrTokenMalformed
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return SignedToken{}, ErrTokenExpired
	}
	return SignedToken{Token: token, Subject: string(subject), Path: string(path), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
