package servers

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/repotest"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(id string) *models.ServerConfiguration {
	return &models.ServerConfiguration{
		ID:               id,
		Name:             "server " + id,
		BaseURL:          "https://" + id + ".example.com",
		AuthType:         models.AuthTypeJWT,
		IsSecure:         true,
		ConnectionStatus: models.ConnectionDisconnected,
		APIVersion:       "v1",
		CreatedAt:        time.Unix(1_700_000_000, 0).UTC(),
	}
}

func TestUpsert_RoundTripAndKeepsCreatedAt(t *testing.T) {
	db := repotest.OpenDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	s := newServer("a")
	token := "tok"
	s.AuthToken = &token
	s.TokenExpiresAt = timex.Ptr(time.Unix(1_700_003_600, 0).UTC())
	require.NoError(t, r.Upsert(ctx, s))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	s2 := newServer("a")
	s2.Name = "renamed"
	s2.CreatedAt = time.Unix(1_800_000_000, 0).UTC()
	require.NoError(t, r.Upsert(ctx, s2))

	got, err = r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, s.CreatedAt, got.CreatedAt)
	assert.Nil(t, got.AuthToken)
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLiteRepository(repotest.OpenDB(t))
	_, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = r.GetActive(context.Background())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSetActive_SwitchesExclusively(t *testing.T) {
	db := repotest.OpenDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Upsert(ctx, newServer(id)))
	}

	require.NoError(t, r.SetActive(ctx, "a"))
	require.NoError(t, r.SetActive(ctx, "b"))

	active, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", active.ID)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM server_configurations WHERE is_active = 1`).Scan(&n))
	assert.Equal(t, 1, n)

	// unknown id rolls back the deactivation
	require.ErrorIs(t, r.SetActive(ctx, "zzz"), common.ErrorNotFound)
	active, err = r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", active.ID)
}

func TestUpsert_SecondActiveRejected(t *testing.T) {
	r := NewSQLiteRepository(repotest.OpenDB(t))
	ctx := context.Background()

	a, b := newServer("a"), newServer("b")
	a.IsActive, b.IsActive = true, true
	require.NoError(t, r.Upsert(ctx, a))
	require.Error(t, r.Upsert(ctx, b))
}

func TestUpdateTokensAndStatus(t *testing.T) {
	r := NewSQLiteRepository(repotest.OpenDB(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, newServer("a")))

	access, refresh := "acc", "ref"
	exp := time.Unix(1_700_010_000, 0).UTC()
	require.NoError(t, r.UpdateTokens(ctx, "a", &access, &refresh, &exp))

	connectedAt := time.Unix(1_700_000_100, 0).UTC()
	require.NoError(t, r.UpdateConnectionStatus(ctx, "a", models.ConnectionConnected, &connectedAt))
	require.NoError(t, r.UpdateConnectionStatus(ctx, "a", models.ConnectionError, nil))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "acc", *got.AuthToken)
	assert.Equal(t, "ref", *got.RefreshToken)
	assert.Equal(t, exp, *got.TokenExpiresAt)
	assert.Equal(t, models.ConnectionError, got.ConnectionStatus)
	assert.Equal(t, connectedAt, *got.LastConnected)

	require.ErrorIs(t, r.UpdateTokens(ctx, "x", nil, nil, nil), common.ErrorNotFound)
}

func TestList_AndDeleteCascades(t *testing.T) {
	db := repotest.OpenDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, newServer("b")))
	require.NoError(t, r.Upsert(ctx, newServer("a")))
	repotest.SeedConversation(t, db, "conv", "a")

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	require.NoError(t, r.Delete(ctx, "a"))
	require.ErrorIs(t, r.Delete(ctx, "a"), common.ErrorNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n))
	assert.Zero(t, n)
}

func TestGet_CorruptRows(t *testing.T) {
	db := repotest.OpenDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO server_configurations
		(id, name, base_url, auth_type, connection_status, api_version, created_at)
		VALUES ('enum', 'n', 'u', 'kerberos', 'disconnected', 'v1', 0)`)
	require.NoError(t, err)
	_, err = r.Get(ctx, "enum")
	require.ErrorIs(t, err, common.ErrInvalidEnumValue)

	_, err = db.Exec(`INSERT INTO server_configurations
		(id, name, base_url, auth_type, connection_status, api_version, created_at)
		VALUES ('ts', 'n', 'u', 'jwt', 'disconnected', 'v1', 'yesterday')`)
	require.NoError(t, err)
	_, err = r.Get(ctx, "ts")
	require.ErrorIs(t, err, timex.ErrInvalidTimestamp)

	var tsErr *timex.InvalidTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, "created_at", tsErr.Field)
}
