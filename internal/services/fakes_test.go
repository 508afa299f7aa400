package services

import (
	"context"
	"errors"
	"sync"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/repo"
)

// ----- Fake store -----

type linkRow struct{ long, short string }

// memStore is an in-memory repo.Store with switchable failures.
type memStore struct {
	mu       sync.Mutex
	keys     map[int64]string
	mappings map[string]int
	links    []linkRow

	failSaveMapping bool
	failSaveLink    bool
	failResolve     bool
	failKeys        bool
}

func newMemStore() *memStore {
	return &memStore{keys: map[int64]string{}, mappings: map[string]int{}}
}

var errDown = errors.New("connection refused")

func unavailable() error { return errors.Join(repo.ErrUnavailable, errDown) }

func (m *memStore) SaveAPIKey(_ context.Context, userID int64, apiKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKeys {
		return unavailable()
	}
	m.keys[userID] = apiKey
	return nil
}

func (m *memStore) GetAPIKey(_ context.Context, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKeys {
		return "", unavailable()
	}
	k, ok := m.keys[userID]
	if !ok {
		return "", repo.ErrNotFound
	}
	return k, nil
}

func (m *memStore) SaveMapping(_ context.Context, token string, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveMapping {
		return unavailable()
	}
	if _, ok := m.mappings[token]; !ok {
		m.mappings[token] = messageID
	}
	return nil
}

func (m *memStore) ResolveMapping(_ context.Context, token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failResolve {
		return 0, unavailable()
	}
	id, ok := m.mappings[token]
	if !ok {
		return 0, repo.ErrNotFound
	}
	return id, nil
}

func (m *memStore) SaveLinkPair(_ context.Context, longURL, shortURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveLink {
		return unavailable()
	}
	m.links = append(m.links, linkRow{longURL, shortURL})
	return nil
}

func (m *memStore) ResolveLongURL(_ context.Context, shortURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failResolve {
		return "", unavailable()
	}
	for i := len(m.links) - 1; i >= 0; i-- {
		if m.links[i].short == shortURL {
			return m.links[i].long, nil
		}
	}
	return "", repo.ErrNotFound
}

func (m *memStore) Close(context.Context) error { return nil }

var _ repo.Store = (*memStore)(nil)

// ----- Fake shortener -----

type shortenCall struct{ key, long string }

// fakeShortener returns results[long] or, when absent, "<prefix><n>".
type fakeShortener struct {
	mu      sync.Mutex
	calls   []shortenCall
	prefix  string
	failOn  map[string]bool
	counter int
}

var errShortenDown = errors.New("shorten failed: status \"error\"")

func (f *fakeShortener) Shorten(_ context.Context, apiKey, longURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, shortenCall{apiKey, longURL})
	if f.failOn[longURL] || f.failOn["*"] {
		return "", errShortenDown
	}
	f.counter++
	prefix := f.prefix
	if prefix == "" {
		prefix = "https://viralbox.in/s"
	}
	return prefix + string(rune('0'+f.counter)), nil
}

// ----- Fake relay / gate / deliverer -----

type fakeRelay struct {
	nextID int
	err    error
	calls  int
}

func (r *fakeRelay) StoreMessage(_ context.Context, _ int64, _ int) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return r.nextID, nil
}

type fakeGate struct {
	status domain.MemberStatus
	err    error
	calls  int
}

func (g *fakeGate) MemberStatus(context.Context, int64) (domain.MemberStatus, error) {
	g.calls++
	return g.status, g.err
}

type deliverCall struct {
	chatID   int64
	storedID int
}

type fakeDeliverer struct {
	calls []deliverCall
	err   error
}

func (d *fakeDeliverer) DeliverStored(_ context.Context, chatID int64, storedID int) error {
	d.calls = append(d.calls, deliverCall{chatID, storedID})
	return d.err
}
