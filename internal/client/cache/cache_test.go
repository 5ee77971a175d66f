package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/cacheentries"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/repotest"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingKeys struct{}

func (failingKeys) GetOrCreateKey(context.Context) (cryptox.Key, error) {
	return cryptox.Key{}, cryptox.ErrKeyAccess
}

func newStore(t *testing.T) (*Store, *cacheentries.SQLiteRepository, *fakeClock) {
	t.Helper()
	repo := cacheentries.NewSQLiteRepository(repotest.OpenDB(t))
	clock := &fakeClock{now: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)}
	keys := cryptox.NewKeyManager(cryptox.NewMemoryStore(), "chatkeeper-test", "cache")
	return NewStore(repo, keys, WithClock(clock.Now)), repo, clock
}

func TestPutGet_RoundTrip(t *testing.T) {
	s, repo, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "preview:c1", models.CacheTypeConversation, []byte("<p>hello</p>"), nil))

	raw, err := repo.Get(ctx, "preview:c1")
	require.NoError(t, err)
	assert.NotContains(t, string(raw.EncryptedData), "hello")
	assert.EqualValues(t, len("<p>hello</p>"), raw.SizeBytes)
	assert.Len(t, raw.EncryptionKeyID, 16)

	clock.Advance(time.Minute)
	got, ok, err := s.Get(ctx, "preview:c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("<p>hello</p>"), got)

	touched, err := repo.Get(ctx, "preview:c1")
	require.NoError(t, err)
	assert.Equal(t, clock.now, touched.AccessedAt)
	assert.Equal(t, raw.CreatedAt, touched.CreatedAt)
}

func TestGet_Miss(t *testing.T) {
	s, _, _ := newStore(t)
	got, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExpiredEntry_EvictedAndMissed(t *testing.T) {
	s, _, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", models.CacheTypeMessage, []byte("v"), timex.Ptr(clock.now.Add(-time.Second))))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are a miss even before eviction")

	n, err := s.EvictExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_TamperedPayloadIsAnError(t *testing.T) {
	s, repo, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", models.CacheTypeFile, []byte("payload"), nil))

	e, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	e.EncryptedData[len(e.EncryptedData)-1] ^= 0xff
	require.NoError(t, repo.Put(ctx, e))

	_, ok, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, cryptox.ErrAuthentication)
	assert.False(t, ok)
}

func TestGet_ForeignKeyIsAnError(t *testing.T) {
	s, repo, clock := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", models.CacheTypeFile, []byte("payload"), nil))

	other := NewStore(repo, cryptox.NewKeyManager(cryptox.NewMemoryStore(), "x", "y"), WithClock(clock.Now))
	_, _, err := other.Get(ctx, "k")
	require.ErrorIs(t, err, cryptox.ErrAuthentication)
}

func TestKeyFailureSurfaces(t *testing.T) {
	repo := cacheentries.NewSQLiteRepository(repotest.OpenDB(t))
	s := NewStore(repo, failingKeys{})
	ctx := context.Background()

	err := s.Put(ctx, "k", models.CacheTypeFile, []byte("v"), nil)
	require.True(t, errors.Is(err, cryptox.ErrKeyAccess))

	require.NoError(t, repo.Put(ctx, &models.CacheEntry{
		Key: "k", EncryptedData: []byte("0123456789abcdef0123456789"), CreatedAt: time.Unix(0, 0),
		AccessedAt: time.Unix(0, 0), CacheType: models.CacheTypeFile, EncryptionKeyID: "k",
	}))
	_, _, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, cryptox.ErrKeyAccess)
}

func TestListEntries_Usage_Delete(t *testing.T) {
	s, _, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", models.CacheTypeConversation, make([]byte, 10), nil))
	require.NoError(t, s.Put(ctx, "b", models.CacheTypePreference, make([]byte, 3), timex.Ptr(clock.now.Add(time.Hour))))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Nil(t, e.EncryptedData)
	}

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.CacheType]int64{
		models.CacheTypeConversation: 10,
		models.CacheTypePreference:   3,
	}, usage)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiryFor_And_PutWithPolicy(t *testing.T) {
	s, _, clock := newStore(t)
	ctx := context.Background()

	exp, ok := s.ExpiryFor(models.CachePolicyLightweight)
	require.True(t, ok)
	assert.Equal(t, clock.now.Add(7*24*time.Hour), exp)

	_, ok = s.ExpiryFor(models.CachePolicyDisabled)
	assert.False(t, ok)

	require.NoError(t, s.PutWithPolicy(ctx, "off", models.CacheTypeMessage, []byte("x"), models.CachePolicyDisabled))
	require.NoError(t, s.PutWithPolicy(ctx, "on", models.CacheTypeMessage, []byte("x"), models.CachePolicyExtended))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "on", entries[0].Key)
	assert.Equal(t, clock.now.Add(90*24*time.Hour), *entries[0].ExpiresAt)
}

func TestPrune(t *testing.T) {
	s, _, clock := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "dead", models.CacheTypeMessage, []byte("x"), timex.Ptr(clock.now)))
	require.NoError(t, s.Put(ctx, "live", models.CacheTypeMessage, []byte("y"), nil))

	report, err := s.Prune(ctx, models.CachePolicyBalanced)
	require.NoError(t, err)
	assert.Equal(t, PruneReport{Expired: 1}, report)

	report, err = s.Prune(ctx, models.CachePolicyDisabled)
	require.NoError(t, err)
	assert.Equal(t, PruneReport{Trimmed: 1}, report)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
