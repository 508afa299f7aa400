// Package domain defines the persistence models shared by the three bots:
// link pairs, mapping tokens and user API keys. The same structs are mapped
// by GORM (SQL backend) and by the MongoDB driver (document backend), so
// field names in the bson tags follow the documents written by the original
// deployment.
package domain

import "time"

// LinkPair records one shortening of a long URL. The table is an append-only
// log: a long URL may appear many times, once per short URL issued for it
// (e.g., re-shortened by different users). No uniqueness is enforced.
//
// Fields:
//   - ID: autoincrement key (SQL only); orders rows by insertion.
//   - LongURL: canonical "<worker-domain>/<token>" URL.
//   - ShortURL: URL returned by the shortening service; indexed for reverse lookups.
//   - CreatedAt: insertion time (UTC).
type LinkPair struct {
	ID        uint      `json:"-"         bson:"-"         gorm:"primaryKey;autoIncrement"`
	LongURL   string    `json:"long_url"  bson:"longURL"   gorm:"column:long_url;type:text;not null"`
	ShortURL  string    `json:"short_url" bson:"shortURL"  gorm:"column:short_url;type:varchar(512);not null;index:idx_links_short"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt" gorm:"not null"`
}

// TableName returns the database table name for LinkPair.
func (LinkPair) TableName() string { return "links" }

// Mapping binds a mapping token to a message stored in the storage channel.
// It is created once at publish time and never mutated.
type Mapping struct {
	ID        uint      `json:"-"          bson:"-"          gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"mapping"    bson:"mapping"    gorm:"column:mapping;type:varchar(64);not null;index:idx_mappings_token"`
	MessageID int       `json:"message_id" bson:"message_id" gorm:"column:message_id;not null"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"  gorm:"not null"`
}

// TableName returns the database table name for Mapping.
func (Mapping) TableName() string { return "mappings" }

// UserAPIKey stores the shortening-service key of a Telegram user. There is
// at most one row per user; saving a key replaces the previous one.
type UserAPIKey struct {
	UserID    int64     `json:"user_id"    bson:"userId"    gorm:"column:user_id;primaryKey;autoIncrement:false"`
	APIKey    string    `json:"-"          bson:"apiKey"    gorm:"column:api_key;type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt" gorm:"not null"`
}

// TableName returns the database table name for UserAPIKey.
func (UserAPIKey) TableName() string { return "user_apis" }
