package domain

import (
	"strings"
	"unicode"
)

// MediaKind names the kind of media attached to an inbound chat message.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaAudio     MediaKind = "audio"
	MediaVoice     MediaKind = "voice"
	MediaAnimation MediaKind = "animation"
	MediaVideoNote MediaKind = "video_note"
)

// Captionable reports whether media of this kind can be re-sent with a caption.
// Video notes cannot carry one.
func (k MediaKind) Captionable() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaVoice, MediaAnimation:
		return true
	}
	return false
}

// Media is a reference to a file already hosted by the chat transport.
type Media struct {
	Kind   MediaKind
	FileID string
}

// InboundMessage is the transport-neutral view of a chat message that the
// workflows consume. Only the fields the bots act upon are carried.
type InboundMessage struct {
	UpdateID  int
	MessageID int
	ChatID    int64
	UserID    int64
	FirstName string
	Username  string
	Text      string
	Caption   string
	Media     *Media
}

// Command returns the bot command ("start", "set_api", ...) and its argument
// string when the text starts with a slash. The command ends at the first
// whitespace of any kind (space, tab, newline). A "@botname" suffix on the command
// is stripped. ok is false for plain text.
func (m InboundMessage) Command() (cmd, args string, ok bool) {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i:]
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// MemberStatus is the status of a user in the gate channel as reported by the
// transport: member, administrator, creator, left, kicked, restricted or "".
type MemberStatus string

const (
	StatusMember        MemberStatus = "member"
	StatusAdministrator MemberStatus = "administrator"
	StatusCreator       MemberStatus = "creator"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// Joined reports whether the status counts as having joined the channel.
func (s MemberStatus) Joined() bool {
	switch s {
	case StatusMember, StatusAdministrator, StatusCreator:
		return true
	}
	return false
}
