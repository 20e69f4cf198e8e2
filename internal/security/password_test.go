package security_test

import (
	"strings"
	"testing"

	"github.com/geocoder89/civicchain/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashIsSaltedAndVerifiable(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("pw123")
	require.NoError(t, err)
	second, err := h.Hash("pw123")
	require.NoError(t, err)

	require.NotEqual(t, "pw123", first)
	require.NotEqual(t, first, second)
	require.True(t, h.Verify("pw123", first))
	require.True(t, h.Verify("pw123", second))
	require.False(t, h.Verify("pw124", first))
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "pw123", "$2a$xx$notreallyahash", "$9z$04$abcdefghijklmnopqrstuv"} {
		require.False(t, h.Verify("pw123", digest), "digest %q", digest)
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, security.ErrPasswordTooLong)
}

func TestNewBcryptHasherOutOfRangeCost(t *testing.T) {
	h := security.NewBcryptHasher(99)

	digest, err := h.Hash("pw123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	require.Equal(t, security.DefaultCost, cost)
}
