package models

import "time"

// WindowSettings holds persisted window geometry.
type WindowSettings struct {
	Width        int  `json:"width"`
	Height       int  `json:"height"`
	PositionX    *int `json:"positionX,omitempty"`
	PositionY    *int `json:"positionY,omitempty"`
	IsMaximized  bool `json:"isMaximized"`
	IsFullscreen bool `json:"isFullscreen"`
}

// NotificationSettings covers desktop prompts and sounds.
type NotificationSettings struct {
	Enabled    bool `json:"enabled"`
	PlaySound  bool `json:"playSound"`
	ShowAlerts bool `json:"showAlerts"`
}

// UserPreferences is a per-user singleton.
type UserPreferences struct {
	UserID               string
	GlobalHotkey         *string
	CachePolicy          CachePolicy
	Theme                Theme
	WindowSettings       WindowSettings
	NotificationSettings NotificationSettings
	QuickCaptureEnabled  bool
	SystemTrayEnabled    bool
	AutoStart            bool
	AnalyticsEnabled     bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultPreferences returns the settings a new user starts with.
func DefaultPreferences(userID string, now time.Time) *UserPreferences {
	return &UserPreferences{
		UserID:               userID,
		CachePolicy:          CachePolicyBalanced,
		Theme:                ThemeSystem,
		WindowSettings:       WindowSettings{Width: 1024, Height: 768},
		NotificationSettings: NotificationSettings{Enabled: true, PlaySound: true, ShowAlerts: true},
		QuickCaptureEnabled:  true,
		SystemTrayEnabled:    true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Touch bumps UpdatedAt; every mutation must call it.
func (p *UserPreferences) Touch(now time.Time) {
	p.UpdatedAt = now
}
