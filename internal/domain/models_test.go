package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (LinkPair{}).TableName() != "links" {
		t.Fatalf("LinkPair.TableName() = %q; want %q", (LinkPair{}).TableName(), "links")
	}
	if (Mapping{}).TableName() != "mappings" {
		t.Fatalf("Mapping.TableName() = %q; want %q", (Mapping{}).TableName(), "mappings")
	}
	if (UserAPIKey{}).TableName() != "user_apis" {
		t.Fatalf("UserAPIKey.TableName() = %q; want %q", (UserAPIKey{}).TableName(), "user_apis")
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&LinkPair{}, &Mapping{}, &UserAPIKey{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&LinkPair{}, &Mapping{}, &UserAPIKey{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&LinkPair{}, "idx_links_short") {
		t.Fatalf("expected index idx_links_short on links")
	}
	if !m.HasIndex(&Mapping{}, "idx_mappings_token") {
		t.Fatalf("expected index idx_mappings_token on mappings")
	}
	if !m.HasColumn(&Mapping{}, "message_id") {
		t.Fatalf("expected column message_id on mappings")
	}
}

func TestLinkPair_AppendOnlyAllowsDuplicates(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&LinkPair{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		lp := &LinkPair{LongURL: "https://w.example/abc123", ShortURL: "https://s.example/x", CreatedAt: now}
		if err := db.Create(lp).Error; err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	var n int64
	db.Model(&LinkPair{}).Where("short_url = ?", "https://s.example/x").Count(&n)
	if n < 2 {
		t.Fatalf("expected duplicate short urls to be accepted, got %d rows", n)
	}
}

func TestMediaKind_Captionable(t *testing.T) {
	for _, k := range []MediaKind{MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaVoice, MediaAnimation} {
		if !k.Captionable() {
			t.Fatalf("%s should be captionable", k)
		}
	}
	if MediaVideoNote.Captionable() {
		t.Fatalf("video notes have no caption")
	}
	if MediaKind("sticker").Captionable() {
		t.Fatalf("unknown kinds are not captionable")
	}
}

func TestInboundMessage_Command(t *testing.T) {
	cases := []struct {
		text     string
		cmd      string
		args     string
		isCmdOut bool
	}{
		{"/start", "start", "", true},
		{"/start abc123", "start", "abc123", true},
		{"/set_api   KEY  ", "set_api", "KEY", true},
		{"/Start@linkbox_bot xyz", "start", "xyz", true},
		{"/set_api\nKEY", "set_api", "KEY", true},
		{"/start\tTOKEN", "start", "TOKEN", true},
		{"hello /start", "", "", false},
		{"/", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		cmd, args, ok := InboundMessage{Text: tc.text}.Command()
		if cmd != tc.cmd || args != tc.args || ok != tc.isCmdOut {
			t.Errorf("Command(%q) = (%q, %q, %v); want (%q, %q, %v)", tc.text, cmd, args, ok, tc.cmd, tc.args, tc.isCmdOut)
		}
	}
}

func TestMemberStatus_Joined(t *testing.T) {
	joined := []MemberStatus{StatusMember, StatusAdministrator, StatusCreator}
	notJoined := []MemberStatus{StatusLeft, StatusKicked, "restricted", ""}
	for _, s := range joined {
		if !s.Joined() {
			t.Fatalf("%q should count as joined", s)
		}
	}
	for _, s := range notJoined {
		if s.Joined() {
			t.Fatalf("%q should not count as joined", s)
		}
	}
}
