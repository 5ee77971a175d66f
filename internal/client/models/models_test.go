package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/stretchr/testify/require"
)

func TestParseEnums_KnownTags(t *testing.T) {
	s, err := ParseSyncState("conflict")
	require.NoError(t, err)
	require.Equal(t, SyncStateConflict, s)

	r, err := ParseMessageRole("assistant")
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, r)

	p, err := ParseProcessingState("cancelled")
	require.NoError(t, err)
	require.Equal(t, ProcessingCancelled, p)

	a, err := ParseAuthType("ldap")
	require.NoError(t, err)
	require.Equal(t, AuthTypeLDAP, a)

	c, err := ParseCacheType("preference")
	require.NoError(t, err)
	require.Equal(t, CacheTypePreference, c)
}

func TestParseEnums_RejectUnknownTags(t *testing.T) {
	_, err := ParseSyncState("Synced")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = ParseMessageRole("bot")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = ParseTheme("")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = ParseCachePolicy("huge")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = ParseConnectionStatus("up")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = ParseUploadStatus("done")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)
}

func TestQueueEntry_CanRetry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(10 * time.Minute)

	e := QueueEntry{RetryCount: 0, MaxRetries: 3}
	require.True(t, e.CanRetry(now))

	e.NextRetryAt = &later
	require.False(t, e.CanRetry(now))
	require.True(t, e.CanRetry(later))

	e.RetryCount = 3
	require.False(t, e.CanRetry(later.Add(time.Hour)))
}

func TestCacheEntry_IsExpired(t *testing.T) {
	now := time.Now()
	e := CacheEntry{}
	require.False(t, e.IsExpired(now))

	past := now.Add(-time.Second)
	e.ExpiresAt = &past
	require.True(t, e.IsExpired(now))

	e.ExpiresAt = &now
	require.True(t, e.IsExpired(now), "expiry equal to now is already dead")
}

func TestCachePolicy_Limits(t *testing.T) {
	require.Zero(t, CachePolicyDisabled.Limits().MaxBytes)
	require.Equal(t, 7*24*time.Hour, CachePolicyLightweight.Limits().Retention)
	require.Equal(t, int64(500)<<20, CachePolicyBalanced.Limits().MaxBytes)
	require.Greater(t, CachePolicyExtended.Limits().MaxBytes, CachePolicyBalanced.Limits().MaxBytes)
}

func TestServerConfiguration_TokenIsValid(t *testing.T) {
	now := time.Now()
	tok := "abc"
	exp := now.Add(time.Minute)

	s := ServerConfiguration{}
	require.False(t, s.TokenIsValid(now))

	s.AuthToken = &tok
	require.False(t, s.TokenIsValid(now), "unknown expiry is not valid")

	s.TokenExpiresAt = &exp
	require.True(t, s.TokenIsValid(now))
	require.False(t, s.TokenIsValid(exp))
}

func TestQuickCaptureSession_MarkCompleted_ClampsNegativeDuration(t *testing.T) {
	created := time.Now()
	s := QuickCaptureSession{CreatedAt: created}
	s.MarkCompleted(created.Add(-time.Second), nil)
	require.NotNil(t, s.SessionDurationMS)
	require.Zero(t, *s.SessionDurationMS)

	resp := "done"
	s.MarkCompleted(created.Add(1500*time.Millisecond), &resp)
	require.Equal(t, int64(1500), *s.SessionDurationMS)
	require.Equal(t, "done", *s.Response)
}
