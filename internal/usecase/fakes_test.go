package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/profile-crawler/internal/dom"
	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"
)

// fakeStore is an in-memory RecordStore with fault injection.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]entity.Profile
	order    []string
	lastRun  *time.Time

	failSaveOn   string // URL whose Save fails
	failExists   bool
	failSetLast  bool
	existsCalls  int
	setLastCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]entity.Profile{}}
}

func (s *fakeStore) Exists(ctx context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls++
	if s.failExists {
		return false, fmt.Errorf("disk gone: %w", repository.ErrStorageUnavailable)
	}
	_, ok := s.profiles[url]
	return ok, nil
}

func (s *fakeStore) Save(ctx context.Context, p *entity.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.URL == s.failSaveOn {
		return false, fmt.Errorf("disk gone: %w", repository.ErrStorageUnavailable)
	}
	if _, ok := s.profiles[p.URL]; ok {
		return false, nil
	}
	s.profiles[p.URL] = *p
	s.order = append(s.order, p.URL)
	return true, nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.profiles)), nil
}

func (s *fakeStore) SetLastRun(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLastCalls++
	if s.failSetLast {
		return fmt.Errorf("read only: %w", repository.ErrStorageUnavailable)
	}
	s.lastRun = &t
	return nil
}

func (s *fakeStore) GetLastRun(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, nil
}

func (s *fakeStore) ExportAll(ctx context.Context) ([]entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Profile, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, s.profiles[u])
	}
	return out, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

// fakeBrowser serves canned HTML by URL and records every navigation.
type fakeBrowser struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	visited  []string
	sessions int
	closed   int

	// onNavigate runs before a page is served, outside the lock.
	onNavigate func(url string)
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{pages: map[string]string{}, failures: map[string]error{}}
}

func (b *fakeBrowser) NewSession(ctx context.Context) (repository.BrowserSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions++
	return &fakeSession{b: b}, nil
}

func (b *fakeBrowser) visits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.visited...)
}

type fakeSession struct {
	b *fakeBrowser
}

func (s *fakeSession) Navigate(ctx context.Context, url string) (*dom.Page, error) {
	if s.b.onNavigate != nil {
		s.b.onNavigate(url)
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.visited = append(s.b.visited, url)
	if err := s.b.failures[url]; err != nil {
		return nil, err
	}
	html, ok := s.b.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s: status 404", repository.ErrFetchFailed, repository.ErrNavigationFailed, url)
	}
	return dom.New(url, html)
}

func (s *fakeSession) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.closed++
	return nil
}

// countingPacer never sleeps.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

// stepClock returns base, base+1s, base+2s, ...
func stepClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	next := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}
