// Package token implements issuance and verification of the signed, typed,
// time-limited bearer tokens used for session authentication and for
// out-of-band email confirmation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type distinguishes the two token classes. An access token can never be
// redeemed as a confirmation token and vice versa.
type Type string

const (
	TypeAccess       Type = "access"
	TypeConfirmation Type = "confirmation"
)

// Default validity windows, overridable via configuration.
const (
	DefaultAccessTTL       = 30 * time.Minute
	DefaultConfirmationTTL = 24 * time.Hour
)

var (
	// ErrMalformed means the token string could not be parsed at all.
	ErrMalformed = errors.New("token is malformed")
	// ErrInvalidSignature means the signature did not verify against the
	// configured secret.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrExpired means the token was valid but its expiry has passed.
	ErrExpired = errors.New("token has expired")
	// ErrInvalidToken is the verifier's collapsed class for signature and
	// parse failures; expiry is deliberately kept distinguishable.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject means the claims carry no subject.
	ErrMissingSubject = errors.New("token has no subject")
	// ErrWrongTokenType means the type claim is absent or does not match
	// the type expected by the verification context.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the payload carried inside a token: subject (the user's email),
// expiry, and the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type Type `json:"type,omitempty"`
}

// Codec serializes claims to and from opaque signed strings using HS256
// with a single symmetric secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Encode signs the claims and returns the compact token string.
func (c *Codec) Encode(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Decode parses and verifies a token string. Failures are distinguishable:
// ErrMalformed for unparseable input, ErrInvalidSignature for a signature
// that does not verify, ErrExpired for a past expiry. The signature is
// checked before any claim is trusted, so a tampered expired token reports
// ErrInvalidSignature, not ErrExpired.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrInvalidSignature
		}
	}

	return claims, nil
}

// Issuer produces access and confirmation tokens bound to a user's email.
// Issuance is a pure function of (email, current time, TTL).
type Issuer struct {
	codec           *Codec
	accessTTL       time.Duration
	confirmationTTL time.Duration
	now             func() time.Time
}

// NewIssuer creates an Issuer. Zero TTLs fall back to the package defaults;
// negative TTLs are taken as-is so tests can force already-expired tokens.
func NewIssuer(codec *Codec, accessTTL, confirmationTTL time.Duration) *Issuer {
	if accessTTL == 0 {
		accessTTL = DefaultAccessTTL
	}
	if confirmationTTL == 0 {
		confirmationTTL = DefaultConfirmationTTL
	}
	return &Issuer{
		codec:           codec,
		accessTTL:       accessTTL,
		confirmationTTL: confirmationTTL,
		now:             time.Now,
	}
}

// AccessToken issues a short-lived token of type "access" for the given email.
func (i *Issuer) AccessToken(email string) (string, error) {
	return i.issue(email, TypeAccess, i.accessTTL)
}

// ConfirmationToken issues a long-lived token of type "confirmation" for the
// given email.
func (i *Issuer) ConfirmationToken(email string) (string, error) {
	return i.issue(email, TypeConfirmation, i.confirmationTTL)
}

func (i *Issuer) issue(email string, typ Type, ttl time.Duration) (string, error) {
	now := i.now()

	return i.codec.Encode(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: typ,
	})
}

// Verifier validates tokens and extracts their subject.
type Verifier struct {
	codec *Codec
}

func NewVerifier(codec *Codec) *Verifier {
	return &Verifier{codec: codec}
}

// ExtractSubject decodes the token and returns its subject if the token is
// valid and of the expected type.
//
// Expiry is surfaced before the type check: an expired confirmation token
// presented where an access token is expected reports ErrExpired, not
// ErrWrongTokenType.
func (v *Verifier) ExtractSubject(tokenString string, want Type) (string, error) {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		if errors.Is(err, ErrExpired) {
			return "", err
		}
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	if claims.Type != want {
		return "", fmt.Errorf("%w: expected %q", ErrWrongTokenType, want)
	}

	return claims.Subject, nil
}
