package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/export"
	"github.com/user/profile-crawler/internal/repository"
	"github.com/user/profile-crawler/pkg/metrics"
)

// ProfileManager defines the read side: status and exports.
type ProfileManager interface {
	GetStatus(ctx context.Context) (*entity.CrawlStatus, error)
	// Export writes the CSV snapshot to w and returns the number of rows.
	Export(ctx context.Context, w io.Writer) (int, error)
	// ExportToFile writes the CSV snapshot to path and returns the number of rows.
	ExportToFile(ctx context.Context, path string) (int, error)
}

type profileManagerUseCase struct {
	store repository.RecordStore
	lock  repository.CrawlLock
}

// NewProfileManager creates a new ProfileManager use case.
func NewProfileManager(store repository.RecordStore, lock repository.CrawlLock) ProfileManager {
	metrics.Init()
	return &profileManagerUseCase{store: store, lock: lock}
}

func (uc *profileManagerUseCase) GetStatus(ctx context.Context) (*entity.CrawlStatus, error) {
	lastRun, err := uc.store.GetLastRun(ctx)
	if err != nil {
		return nil, err
	}
	total, err := uc.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	metrics.StoredProfiles.Set(float64(total))

	held, err := uc.lock.Held(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl lock: %w", err)
	}
	return &entity.CrawlStatus{
		LastRun:         lastRun,
		TotalRecords:    total,
		CrawlInProgress: held,
	}, nil
}

func (uc *profileManagerUseCase) Export(ctx context.Context, w io.Writer) (int, error) {
	profiles, err := uc.store.ExportAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := export.WriteCSV(w, profiles); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(profiles), nil
}

func (uc *profileManagerUseCase) ExportToFile(ctx context.Context, path string) (int, error) {
	profiles, err := uc.store.ExportAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := export.WriteFile(path, profiles); err != nil {
		return 0, err
	}
	return len(profiles), nil
}
