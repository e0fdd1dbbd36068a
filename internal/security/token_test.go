package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemlevent54/FileMate/internal/clock"
)

var epoch = time.Date(2025, 5, 21, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) (*TokenCodec, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(epoch)
	codec, err := NewTokenCodec(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      time.Hour,
		Issuer:        "filemate",
	}, clk)
	require.NoError(t, err)
	return codec, clk
}

func TestNewTokenCodec_RequiresDistinctSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec(TokenConfig{AccessSecret: "same", RefreshSecret: "same"}, nil)
	assert.Error(t, err)

	_, err = NewTokenCodec(TokenConfig{AccessSecret: "only-access"}, nil)
	assert.Error(t, err)
}

func TestTokenCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	issued, err := codec.IssueAccess(42, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(time.Hour), issued.ExpiresAt)
	assert.Len(t, strings.Split(issued.Token, "."), 3)

	claims, err := codec.VerifyAccess(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestTokenCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	issued, err := codec.IssueRefresh(7)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(7*24*time.Hour), issued.ExpiresAt)

	claims, err := codec.VerifyRefresh(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Empty(t, claims.Email)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestTokenCodec_TokensAreUnique(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	first, err := codec.IssueAccess(1, "a@example.com")
	require.NoError(t, err)
	second, err := codec.IssueAccess(1, "a@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

func TestTokenCodec_WrongType(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	refresh, err := codec.IssueRefresh(1)
	require.NoError(t, err)
	access, err := codec.IssueAccess(1, "a@example.com")
	require.NoError(t, err)
	reset, err := codec.IssueReset(1, "a@example.com")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(refresh.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = codec.VerifyRefresh(access.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = codec.VerifyAccess(reset.Token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{name: "one second before expiry", advance: time.Hour - time.Second},
		{name: "exactly at expiry", advance: time.Hour, wantErr: ErrExpiredToken},
		{name: "one millisecond past expiry", advance: time.Hour + time.Millisecond, wantErr: ErrExpiredToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codec, clk := newTestCodec(t)

			issued, err := codec.IssueAccess(1, "a@example.com")
			require.NoError(t, err)

			clk.Advance(tt.advance)
			_, err = codec.VerifyAccess(issued.Token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenCodec_RejectsForeignSignature(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	other, err := NewTokenCodec(TokenConfig{
		AccessSecret:  "other-access",
		RefreshSecret: "other-refresh",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		ResetTTL:      time.Hour,
		Issuer:        "filemate",
	}, clock.NewFake(epoch))
	require.NoError(t, err)

	forged, err := other.IssueRefresh(1)
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(forged.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_RejectsMalformedAndUnsigned(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	_, err := codec.VerifyAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "filemate",
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_ExpiresAtIgnoresLapsedExpiry(t *testing.T) {
	t.Parallel()
	codec, clk := newTestCodec(t)

	issued, err := codec.IssueAccess(1, "a@example.com")
	require.NoError(t, err)

	clk.Advance(48 * time.Hour)
	exp, err := codec.ExpiresAt(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.ExpiresAt, exp)

	_, err = codec.ExpiresAt("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPeekTokenType(t *testing.T) {
	t.Parallel()
	codec, _ := newTestCodec(t)

	refresh, err := codec.IssueRefresh(1)
	require.NoError(t, err)

	typ, err := PeekTokenType(refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, typ)

	_, err = PeekTokenType("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
