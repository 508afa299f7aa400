package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/repo"
)

// KeyStore persists per-user API keys. repo.Store satisfies it.
type KeyStore interface {
	SaveAPIKey(ctx context.Context, userID int64, apiKey string) error
	GetAPIKey(ctx context.Context, userID int64) (string, error)
}

// MappingStore persists token → stored-message bindings.
type MappingStore interface {
	SaveMapping(ctx context.Context, token string, messageID int) error
	ResolveMapping(ctx context.Context, token string) (int, error)
}

// LinkStore persists the long/short URL log.
type LinkStore interface {
	SaveLinkPair(ctx context.Context, longURL, shortURL string) error
	ResolveLongURL(ctx context.Context, shortURL string) (string, error)
}

// Shortener shortens longURL under the account owning apiKey.
type Shortener interface {
	Shorten(ctx context.Context, apiKey, longURL string) (string, error)
}

// Relay copies an inbound message into the storage channel and returns the
// id of the copy.
type Relay interface {
	StoreMessage(ctx context.Context, fromChatID int64, messageID int) (int, error)
}

// Gate reports the membership status of userID in the gate channel.
type Gate interface {
	MemberStatus(ctx context.Context, userID int64) (domain.MemberStatus, error)
}

// Deliverer copies the stored message storedID to chatID.
type Deliverer interface {
	DeliverStored(ctx context.Context, chatID int64, storedID int) error
}

// storeErr maps a repo error onto the service taxonomy. notFound replaces
// repo.ErrNotFound; every other failure wraps ErrStoreUnavailable.
func storeErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return notFound
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
