package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemberTokenRoundTrip(t *testing.T) {
	token, err := MintMemberToken(testSecret, "room-1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseMemberToken(testSecret, "room-1", token)
	require.NoError(t, err)
	require.Equal(t, "room-1", claims.RoomID)
	require.NotEmpty(t, claims.ID)
}

func TestMemberTokensAreUnique(t *testing.T) {
	a, err := MintMemberToken(testSecret, "room-1", time.Minute)
	require.NoError(t, err)
	b, err := MintMemberToken(testSecret, "room-1", time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestMemberTokenBoundToRoom(t *testing.T) {
	token, err := MintMemberToken(testSecret, "room-1", time.Minute)
	require.NoError(t, err)

	_, err = ParseMemberToken(testSecret, "room-2", token)
	require.Error(t, err)
}

func TestMemberTokenRejectsForgedSignature(t *testing.T) {
	token, err := MintMemberToken([]byte("other-secret"), "room-1", time.Minute)
	require.NoError(t, err)

	_, err = ParseMemberToken(testSecret, "room-1", token)
	require.Error(t, err)
}

func TestMemberTokenExpires(t *testing.T) {
	token, err := MintMemberToken(testSecret, "room-1", -time.Second)
	require.NoError(t, err)

	_, err = ParseMemberToken(testSecret, "room-1", token)
	require.Error(t, err)
}
