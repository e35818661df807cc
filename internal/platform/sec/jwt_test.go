// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourt/community/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/*
TestTokenService_RoundTrip verifies that a generated access token can be
verified and carries the original claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "fourt.test")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-1", "alice", "player", false, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "player", claims.Rank)
	assert.False(t, claims.IsAdmin)
}

/*
TestTokenService_Expired verifies that a token past its expiry is rejected.
*/
func TestTokenService_Expired(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "fourt.test")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-1", "alice", "newcomer", false, -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_WrongSecret verifies that a token signed with a different
secret fails verification.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	issuerA, err := sec.NewTokenService(testSecret, "fourt.test")
	require.NoError(t, err)
	issuerB, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", "fourt.test")
	require.NoError(t, err)

	token, err := issuerA.GenerateAccessToken("user-1", "alice", "newcomer", false, time.Minute)
	require.NoError(t, err)

	_, err = issuerB.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_ShortSecret verifies the constructor rejects weak secrets.
*/
func TestTokenService_ShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("too-short", "fourt.test")
	assert.Error(t, err)
}

/*
TestHashToken verifies the token digest is stable and never the identity.
*/
func TestHashToken(t *testing.T) {
	hash := sec.HashToken("refresh-token-value")

	assert.Len(t, hash, 64) // SHA-256 hex
	assert.NotEqual(t, "refresh-token-value", hash)
	assert.Equal(t, hash, sec.HashToken("refresh-token-value"))
}

/*
TestGenerateSecureToken verifies length and uniqueness of random tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, first, 64) // hex doubles the byte length
	assert.NotEqual(t, first, second)
}
