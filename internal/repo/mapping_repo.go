package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// CreateMapping inserts a token → stored message binding. Tokens are not
// checked for collisions; a duplicate token simply adds another row and
// ResolveMapping keeps returning the first one.
func CreateMapping(ctx context.Context, db *gorm.DB, token string, messageID int) error {
	m := &domain.Mapping{
		Token:     token,
		MessageID: messageID,
		CreatedAt: time.Now().UTC(),
	}
	return translate("save mapping", db.WithContext(ctx).Create(m).Error)
}

// ResolveMapping returns the stored message id for token, or ErrNotFound.
func ResolveMapping(ctx context.Context, db *gorm.DB, token string) (int, error) {
	var m domain.Mapping
	err := db.WithContext(ctx).
		Where("mapping = ?", token).
		Order("id asc").
		First(&m).Error
	if err != nil {
		return 0, translate("resolve mapping", err)
	}
	return m.MessageID, nil
}
