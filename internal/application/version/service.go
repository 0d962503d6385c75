package version

import (
	"context"
	"errors"
	"time"

	"github.com/analytics-dashboard-api/internal/domain"
)

// Repo persists the deployment metadata row.
type Repo interface {
	Get(ctx context.Context) (*domain.AppVersion, error)
	Put(ctx context.Context, v *domain.AppVersion) error
	Bump(ctx context.Context, now time.Time) error
}

// Service answers version probes. The numeric build counter renders as a
// display version; the stamp lets clients detect a fresh deployment and
// prompt a reload.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// AppVersion returns the display version, initializing the row at build 1
// on first call.
func (s *Service) AppVersion(ctx context.Context) (string, error) {
	v, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return domain.FormatBuild(v.Build), nil
}

// DeploymentVersion returns the deployment stamp.
func (s *Service) DeploymentVersion(ctx context.Context) (string, error) {
	v, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return v.Stamp, nil
}

// Bump increments the build counter and refreshes the stamp, returning
// the new stamp. Invoked by deploy tooling via an authenticated action.
func (s *Service) Bump(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	if err := s.repo.Bump(ctx, now); err != nil {
		return "", err
	}
	return now.Format(time.RFC3339), nil
}

func (s *Service) load(ctx context.Context) (*domain.AppVersion, error) {
	v, err := s.repo.Get(ctx)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	v = &domain.AppVersion{Build: 1, Stamp: time.Now().UTC().Format(time.RFC3339)}
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
