package repo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested record does not exist. Both
	// backends translate their native "no rows/documents" errors to it.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable wraps every other backend failure (connectivity,
	// missing schema, constraint errors). Callers surface it as a generic
	// failure and do not retry.
	ErrUnavailable = errors.New("store unavailable")
)

// translate maps a backend error onto ErrNotFound / ErrUnavailable while
// keeping the original error in the chain.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
