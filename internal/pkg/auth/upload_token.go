package auth

import (
	"errors"
	"time"

	"citywatch/alertmedia/internal/model"

	"github.com/golang-jwt/jwt"
)

var (
	ErrTokenInvalid = errors.New("upload token is invalid")
	ErrTokenExpired = errors.New("upload token has expired")
)

// UploadClaims binds the reservation to exactly one media row. The token is
// only good for the transfer phase and expires a short fixed interval after
// Reserve issues it.
type UploadClaims struct {
	MediaID     string          `json:"media_id"`
	AlertID     uint            `json:"alert_id"`
	Kind        model.MediaKind `json:"kind"`
	ContentType string          `json:"content_type"`
	jwt.StandardClaims
}

// TokenSigner issues and validates upload tokens. The secret and clock are
// injected so tests can use deterministic keys and frozen time.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock substitutes the time source. Used by tests.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	s.now = now
	return s
}

func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

func (s *TokenSigner) Issue(mediaID string, alertID uint, kind model.MediaKind, contentType string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := &UploadClaims{
		MediaID:     mediaID,
		AlertID:     alertID,
		Kind:        kind,
		ContentType: contentType,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks the signature and expiry and returns the bound claims.
// Expiry is checked against the injected clock so an expired token is
// reported as ErrTokenExpired, everything else as ErrTokenInvalid.
func (s *TokenSigner) Validate(tokenStr string) (*UploadClaims, error) {
	claims := &UploadClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	if s.now().Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
