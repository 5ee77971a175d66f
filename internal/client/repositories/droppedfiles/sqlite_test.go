package droppedfiles

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/repotest"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func newFile(id string, conv *string, dropped time.Time) *models.DroppedFile {
	return &models.DroppedFile{
		ID:             id,
		ConversationID: conv,
		OriginalName:   id + ".pdf",
		FilePath:       "/tmp/" + id + ".pdf",
		MimeType:       "application/pdf",
		SizeBytes:      2048,
		Checksum:       "sha256:abc",
		UploadStatus:   models.UploadPending,
		DroppedAt:      dropped,
	}
}

func TestUpsertGet_RoundTrip(t *testing.T) {
	db := repotest.OpenDB(t)
	repotest.SeedConversation(t, db, "c1", "srv")
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	conv := "c1"
	f := newFile("f1", &conv, t0)
	require.NoError(t, r.Upsert(ctx, f))

	serverID := "srv-file-9"
	f.ServerFileID = &serverID
	f.MarkProcessed(t0.Add(time.Minute))
	require.NoError(t, r.Upsert(ctx, f))

	got, err := r.Get(ctx, "f1")
	require.NoError(t, err)
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestConversationDelete_SetsNull(t *testing.T) {
	db := repotest.OpenDB(t)
	repotest.SeedConversation(t, db, "c1", "srv")
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	conv := "c1"
	require.NoError(t, r.Upsert(ctx, newFile("f1", &conv, t0)))

	_, err := db.Exec(`DELETE FROM conversations WHERE id = 'c1'`)
	require.NoError(t, err)

	got, err := r.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, got.ConversationID)
}

func TestList_FilterAndDelete(t *testing.T) {
	r := NewSQLiteRepository(repotest.OpenDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, newFile("old", nil, t0)))
	done := newFile("new", nil, t0.Add(time.Hour))
	done.MarkProcessed(t0.Add(2 * time.Hour))
	require.NoError(t, r.Upsert(ctx, done))

	all, err := r.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)

	pending := models.UploadPending
	only, err := r.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "old", only[0].ID)

	require.NoError(t, r.Delete(ctx, "old"))
	require.ErrorIs(t, r.Delete(ctx, "old"), common.ErrorNotFound)
	_, err = r.Get(ctx, "old")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
