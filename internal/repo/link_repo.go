package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// CreateLinkPair appends a long/short URL pair to the links log.
func CreateLinkPair(ctx context.Context, db *gorm.DB, longURL, shortURL string) error {
	lp := &domain.LinkPair{
		LongURL:   longURL,
		ShortURL:  shortURL,
		CreatedAt: time.Now().UTC(),
	}
	return translate("save link pair", db.WithContext(ctx).Create(lp).Error)
}

// ResolveLongURL returns the long URL recorded for shortURL. When several rows
// carry the same short URL the most recently inserted one wins.
func ResolveLongURL(ctx context.Context, db *gorm.DB, shortURL string) (string, error) {
	var lp domain.LinkPair
	err := db.WithContext(ctx).
		Where("short_url = ?", shortURL).
		Order("id desc").
		First(&lp).Error
	if err != nil {
		return "", translate("resolve long url", err)
	}
	return lp.LongURL, nil
}
