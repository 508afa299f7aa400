package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-linkbox/internal/observability"
)

// KeyService manages the opaque shortening-service API key of each user. Keys
// are never validated here; the first shortening call does that.
type KeyService struct {
	Store KeyStore
}

// NewKeyService constructs a KeyService over s.
func NewKeyService(s KeyStore) *KeyService {
	return &KeyService{Store: s}
}

// SetAPIKey saves (or replaces) the key of userID.
func (s *KeyService) SetAPIKey(ctx context.Context, userID int64, apiKey string) (err error) {
	ctx, span := observability.StartSpan(ctx, "services/KeyService", "SetAPIKey",
		attribute.Int64("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrEmptyAPIKey
	}
	return storeErr(s.Store.SaveAPIKey(ctx, userID, apiKey), ErrStoreUnavailable)
}

// APIKey returns the saved key of userID, ErrNoAPIKey when none was saved,
// or an error wrapping ErrStoreUnavailable.
func (s *KeyService) APIKey(ctx context.Context, userID int64) (key string, err error) {
	ctx, span := observability.StartSpan(ctx, "services/KeyService", "APIKey",
		attribute.Int64("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	key, err = s.Store.GetAPIKey(ctx, userID)
	if err != nil {
		return "", storeErr(err, ErrNoAPIKey)
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}
