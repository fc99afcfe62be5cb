package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(accessTTL, confirmationTTL time.Duration) (*Issuer, *Verifier) {
	codec := NewCodec(testSecret)
	return NewIssuer(codec, accessTTL, confirmationTTL), NewVerifier(codec)
}

func TestRoundTrip_AccessToken(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)
	issuer := NewIssuer(codec, 0, 0)

	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	claims, err := codec.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", claims.Subject)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRoundTrip_ConfirmationToken(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)
	issuer := NewIssuer(codec, 0, 0)

	tok, err := issuer.ConfirmationToken("bob@example.com")
	require.NoError(t, err)

	claims, err := codec.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", claims.Subject)
	assert.Equal(t, TypeConfirmation, claims.Type)
	assert.WithinDuration(t, time.Now().Add(DefaultConfirmationTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(NewCodec(testSecret), 0, 0)
	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	other := NewCodec([]byte("another-secret-another-secret-32"))
	_, err = other.Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecode_TamperedSignature(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)
	issuer := NewIssuer(codec, 0, 0)
	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	// Flip a character in the signature segment.
	last := tok[len(tok)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := tok[:len(tok)-1] + string(flipped)

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)

	for _, tc := range []string{"", "garbage", "not.a.jwt", "a.b"} {
		_, err := codec.Decode(tc)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", tc)
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)
	issuer := NewIssuer(codec, -time.Minute, -time.Minute)

	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	_, err = codec.Decode(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestExtractSubject_Valid(t *testing.T) {
	t.Parallel()

	issuer, verifier := newTestIssuer(0, 0)
	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	subject, err := verifier.ExtractSubject(tok, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", subject)
}

func TestExtractSubject_WrongType(t *testing.T) {
	t.Parallel()

	issuer, verifier := newTestIssuer(0, 0)

	tok, err := issuer.ConfirmationToken("bob@example.com")
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)
	assert.True(t, strings.Contains(err.Error(), `"access"`), "error should carry the expected type: %v", err)

	tok, err = issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeConfirmation)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

// Expired wins over wrong-type: an expired confirmation token used where an
// access token is expected reports expiry.
func TestExtractSubject_ExpiredBeforeWrongType(t *testing.T) {
	t.Parallel()

	issuer, verifier := newTestIssuer(-time.Minute, -time.Minute)

	tok, err := issuer.ConfirmationToken("bob@example.com")
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestExtractSubject_ExpiredMatchingType(t *testing.T) {
	t.Parallel()

	issuer, verifier := newTestIssuer(-time.Minute, -time.Minute)

	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestExtractSubject_GarbageIsInvalidToken(t *testing.T) {
	t.Parallel()

	_, verifier := newTestIssuer(0, 0)

	_, err := verifier.ExtractSubject("not.a.token", TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractSubject_TamperedIsInvalidToken(t *testing.T) {
	t.Parallel()

	issuer, _ := newTestIssuer(0, 0)
	tok, err := issuer.AccessToken("bob@example.com")
	require.NoError(t, err)

	verifier := NewVerifier(NewCodec([]byte("another-secret-another-secret-32")))
	_, err = verifier.ExtractSubject(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractSubject_MissingSubject(t *testing.T) {
	t.Parallel()

	issuer, verifier := newTestIssuer(0, 0)

	tok, err := issuer.AccessToken("")
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

// A token with no type claim at all must be rejected, not defaulted.
func TestExtractSubject_MissingType(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret)
	verifier := NewVerifier(codec)

	tok, err := codec.Encode(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	_, err = verifier.ExtractSubject(tok, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
