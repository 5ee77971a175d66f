package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// PreferencesService reads and edits per-user settings.
type PreferencesService struct {
	repo  preferences.Repository
	clock func() time.Time
}

func NewPreferencesService(repo preferences.Repository, clock func() time.Time) *PreferencesService {
	if clock == nil {
		clock = time.Now
	}
	return &PreferencesService{repo: repo, clock: clock}
}

// Get returns the stored preferences or, for a new user, the defaults.
// Defaults are not persisted until the first Update.
func (s *PreferencesService) Get(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, err := s.repo.Load(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return models.DefaultPreferences(userID, s.clock()), nil
	}
	return p, err
}

// Update applies fn to the current preferences, bumps updated_at and saves.
func (s *PreferencesService) Update(ctx context.Context, userID string, fn func(p *models.UserPreferences)) (*models.UserPreferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(p)
	p.UserID = userID
	p.Touch(s.clock())
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
