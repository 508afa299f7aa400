// Package repo – user API keys (SQL backend).
//
// Functions:
//
//   - SaveAPIKey(ctx, db, userID, apiKey) -> error
//     Upserts the key for userID; the latest call wins.
//
//   - GetAPIKey(ctx, db, userID) -> (string, error)
//     Returns the stored key or ErrNotFound.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// SaveAPIKey inserts or replaces the API key of userID.
func SaveAPIKey(ctx context.Context, db *gorm.DB, userID int64, apiKey string) error {
	rec := &domain.UserAPIKey{
		UserID:    userID,
		APIKey:    apiKey,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_key", "updated_at"}),
		}).
		Create(rec).Error
	return translate("save api key", err)
}

// GetAPIKey returns the API key saved for userID, or ErrNotFound.
func GetAPIKey(ctx context.Context, db *gorm.DB, userID int64) (string, error) {
	var rec domain.UserAPIKey
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rec).Error
	if err != nil {
		return "", translate("get api key", err)
	}
	return rec.APIKey, nil
}
