package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesService_DefaultsUntilUpdated(t *testing.T) {
	st := openStore(t)
	clock := newFakeClock()
	svc := NewPreferencesService(st.Preferences, clock.Now)
	ctx := context.Background()

	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.CachePolicyBalanced, p.CachePolicy)
	assert.Equal(t, models.ThemeSystem, p.Theme)

	_, err = st.Preferences.Load(ctx, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	clock.Advance(time.Hour)
	updated, err := svc.Update(ctx, "u1", func(p *models.UserPreferences) {
		p.CachePolicy = models.CachePolicyLightweight
		p.Theme = models.ThemeDark
	})
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)

	stored, err := st.Preferences.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.CachePolicyLightweight, stored.CachePolicy)
	assert.Equal(t, models.ThemeDark, stored.Theme)
	assert.Equal(t, clock.Now(), stored.CreatedAt, "defaults are first persisted by Update")

	again, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.CachePolicyLightweight, again.CachePolicy)
}
