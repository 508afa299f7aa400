package repo

import (
	"context"

	"gorm.io/gorm"
)

// Store is the mapping store contract shared by every bot. Each operation is
// a single-document (single-row) write or read; there are no transactions
// across operations.
//
// Error semantics:
//   - lookups of missing records return ErrNotFound;
//   - every other failure wraps ErrUnavailable.
type Store interface {
	SaveAPIKey(ctx context.Context, userID int64, apiKey string) error
	GetAPIKey(ctx context.Context, userID int64) (string, error)
	SaveMapping(ctx context.Context, token string, messageID int) error
	ResolveMapping(ctx context.Context, token string) (int, error)
	SaveLinkPair(ctx context.Context, longURL, shortURL string) error
	ResolveLongURL(ctx context.Context, shortURL string) (string, error)
	Close(ctx context.Context) error
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MongoStore)(nil)
)

// SQLStore adapts the GORM repository functions to the Store interface.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps db. The schema must already be migrated (see AutoMigrate).
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// SaveAPIKey proxies SaveAPIKey.
func (s *SQLStore) SaveAPIKey(ctx context.Context, userID int64, apiKey string) error {
	return SaveAPIKey(ctx, s.DB, userID, apiKey)
}

// GetAPIKey proxies GetAPIKey.
func (s *SQLStore) GetAPIKey(ctx context.Context, userID int64) (string, error) {
	return GetAPIKey(ctx, s.DB, userID)
}

// SaveMapping proxies CreateMapping.
func (s *SQLStore) SaveMapping(ctx context.Context, token string, messageID int) error {
	return CreateMapping(ctx, s.DB, token, messageID)
}

// ResolveMapping proxies ResolveMapping.
func (s *SQLStore) ResolveMapping(ctx context.Context, token string) (int, error) {
	return ResolveMapping(ctx, s.DB, token)
}

// SaveLinkPair proxies CreateLinkPair.
func (s *SQLStore) SaveLinkPair(ctx context.Context, longURL, shortURL string) error {
	return CreateLinkPair(ctx, s.DB, longURL, shortURL)
}

// ResolveLongURL proxies ResolveLongURL.
func (s *SQLStore) ResolveLongURL(ctx context.Context, shortURL string) (string, error) {
	return ResolveLongURL(ctx, s.DB, shortURL)
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
