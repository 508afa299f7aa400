package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// toInbound converts an update carrying a message. ok is false for updates
// without one (edits, callbacks, channel posts).
func toInbound(u tgbotapi.Update) (domain.InboundMessage, bool) {
	m := u.Message
	if m == nil || m.Chat == nil {
		return domain.InboundMessage{}, false
	}
	in := domain.InboundMessage{
		UpdateID:  u.UpdateID,
		MessageID: m.MessageID,
		ChatID:    m.Chat.ID,
		Text:      m.Text,
		Caption:   m.Caption,
		Media:     mediaOf(m),
	}
	if m.From != nil {
		in.UserID = m.From.ID
		in.FirstName = m.From.FirstName
		in.Username = m.From.UserName
	}
	return in, true
}

// mediaOf returns the attachment of m, or nil. For photos the largest size
// (last entry) is used. Animations also carry a Document and are checked
// first so they are replayed as animations.
func mediaOf(m *tgbotapi.Message) *domain.Media {
	switch {
	case len(m.Photo) > 0:
		return &domain.Media{Kind: domain.MediaPhoto, FileID: m.Photo[len(m.Photo)-1].FileID}
	case m.Video != nil:
		return &domain.Media{Kind: domain.MediaVideo, FileID: m.Video.FileID}
	case m.Animation != nil:
		return &domain.Media{Kind: domain.MediaAnimation, FileID: m.Animation.FileID}
	case m.Document != nil:
		return &domain.Media{Kind: domain.MediaDocument, FileID: m.Document.FileID}
	case m.Audio != nil:
		return &domain.Media{Kind: domain.MediaAudio, FileID: m.Audio.FileID}
	case m.Voice != nil:
		return &domain.Media{Kind: domain.MediaVoice, FileID: m.Voice.FileID}
	case m.VideoNote != nil:
		return &domain.Media{Kind: domain.MediaVideoNote, FileID: m.VideoNote.FileID}
	}
	return nil
}
