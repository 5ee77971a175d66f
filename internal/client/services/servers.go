package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/servers"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// ServerService keeps the session state of configured chat servers.
type ServerService struct {
	repo  servers.Repository
	log   logging.Logger
	clock func() time.Time
}

func NewServerService(repo servers.Repository, log logging.Logger, clock func() time.Time) *ServerService {
	if clock == nil {
		clock = time.Now
	}
	return &ServerService{repo: repo, log: log, clock: clock}
}

// Register saves a server endpoint, keeping the session state of an
// existing id intact.
func (s *ServerService) Register(ctx context.Context, id, name, baseURL string) (*models.ServerConfiguration, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidData, baseURL)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty server id", ErrInvalidData)
	}
	if name == "" {
		name = u.Host
	}

	srv, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		srv.Name = name
		srv.BaseURL = baseURL
		srv.IsSecure = u.Scheme == "https"
	case errors.Is(err, common.ErrorNotFound):
		srv = &models.ServerConfiguration{
			ID:               id,
			Name:             name,
			BaseURL:          baseURL,
			AuthType:         models.AuthTypeJWT,
			IsSecure:         u.Scheme == "https",
			ConnectionStatus: models.ConnectionDisconnected,
			APIVersion:       "v1",
			CreatedAt:        s.clock().UTC(),
		}
	default:
		return nil, err
	}

	if err := s.repo.Upsert(ctx, srv); err != nil {
		return nil, fmt.Errorf("failed to save server %s: %w", id, err)
	}
	return srv, nil
}

func (s *ServerService) List(ctx context.Context) ([]*models.ServerConfiguration, error) {
	return s.repo.List(ctx)
}

// Activate makes id the single active server.
func (s *ServerService) Activate(ctx context.Context, id string) error {
	if err := s.repo.SetActive(ctx, id); err != nil {
		return fmt.Errorf("failed to activate server %s: %w", id, err)
	}
	return nil
}

// Active returns the active server configuration.
func (s *ServerService) Active(ctx context.Context) (*models.ServerConfiguration, error) {
	return s.repo.GetActive(ctx)
}

// StoreTokens saves a freshly issued token pair. The expiry comes from the
// access token's exp claim; the token is not verified here, the server does
// that. Opaque tokens are stored without an expiry.
func (s *ServerService) StoreTokens(ctx context.Context, id, access, refresh string) error {
	var refreshPtr *string
	if refresh != "" {
		refreshPtr = &refresh
	}

	expiresAt, err := tokenExpiry(access)
	if err != nil {
		s.log.Debug(ctx, "access token has no readable expiry", "server_id", id, "error", err)
	}
	return s.repo.UpdateTokens(ctx, id, &access, refreshPtr, expiresAt)
}

// ClearTokens forgets the session of id.
func (s *ServerService) ClearTokens(ctx context.Context, id string) error {
	return s.repo.UpdateTokens(ctx, id, nil, nil, nil)
}

// AccessToken returns the active server's token while it is valid and an
// empty string otherwise, so requests go out unauthenticated and the server
// answers 401.
func (s *ServerService) AccessToken(ctx context.Context) (string, error) {
	srv, err := s.repo.GetActive(ctx)
	if err != nil {
		return "", err
	}
	if srv.AuthToken == nil {
		return "", nil
	}
	if srv.TokenExpiresAt != nil && !srv.TokenIsValid(s.clock()) {
		s.log.Warn(ctx, "access token expired", "server_id", srv.ID, "expired_at", *srv.TokenExpiresAt)
		return "", nil
	}
	return *srv.AuthToken, nil
}

func (s *ServerService) MarkConnected(ctx context.Context, id string) error {
	now := s.clock()
	return s.repo.UpdateConnectionStatus(ctx, id, models.ConnectionConnected, &now)
}

func (s *ServerService) MarkError(ctx context.Context, id string) error {
	return s.repo.UpdateConnectionStatus(ctx, id, models.ConnectionError, nil)
}

func tokenExpiry(access string) (*time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, err
	}
	t := exp.UTC()
	return &t, nil
}
