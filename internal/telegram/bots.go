package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/services"
)

// Messenger sends replies. *Client implements it.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMedia(ctx context.Context, chatID int64, m domain.Media, caption string) error
	SendJoinPrompt(ctx context.Context, chatID int64, text, token string) error
}

// KeyManager is the API-key side of the services (services.KeyService).
type KeyManager interface {
	SetAPIKey(ctx context.Context, userID int64, key string) error
	APIKey(ctx context.Context, userID int64) (string, error)
}

// Publisher is the publish workflow (services.LinkService).
type Publisher interface {
	Publish(ctx context.Context, apiKey string, fromChatID int64, messageID int) (*services.PublishResult, error)
}

// Converter is the re-shorten workflow (services.LinkService).
type Converter interface {
	Convert(ctx context.Context, apiKey string, urls []string) ([]string, error)
}

// Resolver is the file-request workflow (services.FileService).
type Resolver interface {
	Resolve(ctx context.Context, userID, chatID int64, token string) (services.Resolution, error)
}

var (
	_ Messenger  = (*Client)(nil)
	_ KeyManager = (*services.KeyService)(nil)
	_ Publisher  = (*services.LinkService)(nil)
	_ Converter  = (*services.LinkService)(nil)
	_ Resolver   = (*services.FileService)(nil)
)

// reply sends text and logs a failed send; the update is done either way.
func reply(ctx context.Context, out Messenger, chatID int64, text string) {
	if err := out.SendText(ctx, chatID, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("send reply failed")
	}
}

// firstArg returns the first whitespace-separated command argument.
func firstArg(args string) string {
	f := strings.Fields(args)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// lookupKey loads the caller's key. found is false when none is saved; err
// is a store failure (logged) and calls for a generic failure reply.
func lookupKey(ctx context.Context, keys KeyManager, userID int64) (key string, found bool, err error) {
	key, err = keys.APIKey(ctx, userID)
	switch {
	case err == nil:
		return key, true, nil
	case errors.Is(err, services.ErrNoAPIKey):
		return "", false, nil
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("api key lookup failed")
		return "", false, err
	}
}

/* ---------------- uploader ---------------- */

// UploaderBot stores media sent to it and answers with a short link.
type UploaderBot struct {
	Out     Messenger
	Keys    KeyManager
	Publish Publisher
	Texts   Texts
}

// Handle implements Handler. Plain text and unknown commands are ignored.
func (b *UploaderBot) Handle(ctx context.Context, msg domain.InboundMessage) {
	if cmd, args, ok := msg.Command(); ok {
		b.command(ctx, msg, cmd, args)
		return
	}
	if msg.Media == nil {
		return
	}

	key, found, err := lookupKey(ctx, b.Keys, msg.UserID)
	switch {
	case err != nil:
		reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderFailed())
		return
	case !found:
		reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderNeedKey())
		return
	}

	res, err := b.Publish.Publish(ctx, key, msg.ChatID, msg.MessageID)
	if err != nil {
		lg := zerolog.Ctx(ctx)
		var se *services.ShortenError
		if errors.As(err, &se) {
			lg.Warn().Err(err).Msg("upload: shortening rejected")
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderShortenFailed())
			return
		}
		lg.Error().Err(err).Msg("upload failed")
		reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderFailed())
		return
	}

	zerolog.Ctx(ctx).Info().
		Str("token", res.Token).
		Int("stored_message_id", res.StoredMessageID).
		Str("short_url", res.ShortURL).
		Msg("upload complete")
	reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderDone(res.ShortURL))
}

func (b *UploaderBot) command(ctx context.Context, msg domain.InboundMessage, cmd, args string) {
	switch cmd {
	case "start":
		_, found, err := lookupKey(ctx, b.Keys, msg.UserID)
		switch {
		case err != nil:
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderFailed())
		case found:
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderReady())
		default:
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderWelcome(msg.FirstName))
		}
	case "help":
		reply(ctx, b.Out, msg.ChatID, b.Texts.Help())
	case "set_api":
		key := firstArg(args)
		if key == "" {
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderSetAPIUsage())
			return
		}
		if err := b.Keys.SetAPIKey(ctx, msg.UserID, key); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("save api key failed")
			reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderFailed())
			return
		}
		reply(ctx, b.Out, msg.ChatID, b.Texts.UploaderKeySaved())
	}
}

/* ---------------- converter ---------------- */

// ConverterBot re-shortens links under the sender's own API key.
type ConverterBot struct {
	Out     Messenger
	Keys    KeyManager
	Convert Converter
	Texts   Texts
}

// Handle implements Handler. Commands other than start, help and set_api are
// processed as text.
func (b *ConverterBot) Handle(ctx context.Context, msg domain.InboundMessage) {
	if cmd, args, ok := msg.Command(); ok {
		switch cmd {
		case "start":
			_, found, err := lookupKey(ctx, b.Keys, msg.UserID)
			switch {
			case err != nil:
				reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterFailed())
			case found:
				reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterReady())
			default:
				reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterWelcome(msg.FirstName))
			}
			return
		case "help":
			reply(ctx, b.Out, msg.ChatID, b.Texts.Help())
			return
		case "set_api":
			key := firstArg(args)
			if key == "" {
				reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterSetAPIUsage())
				return
			}
			if err := b.Keys.SetAPIKey(ctx, msg.UserID, key); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("save api key failed")
				reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterFailed())
				return
			}
			reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterKeySaved())
			return
		}
	}

	key, found, err := lookupKey(ctx, b.Keys, msg.UserID)
	switch {
	case err != nil:
		reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterFailed())
		return
	case !found:
		reply(ctx, b.Out, msg.ChatID, b.Texts.ConverterNeedKey())
		return
	}

	urls := services.ExtractURLs(msg.Text)
	if msg.Media != nil {
		if fromCaption := services.ExtractURLs(msg.Caption); len(fromCaption) > 0 {
			urls = fromCaption
		}
	}

	links, err := b.Convert.Convert(ctx, key, urls)
	if err != nil {
		reply(ctx, b.Out, msg.ChatID, b.convertFailure(ctx, err))
		return
	}

	text := b.Texts.ConverterDone(links)
	if msg.Media == nil {
		reply(ctx, b.Out, msg.ChatID, text)
		return
	}
	if err := b.Out.SendMedia(ctx, msg.ChatID, *msg.Media, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("kind", string(msg.Media.Kind)).Msg("media replay failed")
	}
}

// convertFailure maps a Convert error to the reply naming the offending link.
func (b *ConverterBot) convertFailure(ctx context.Context, err error) string {
	var (
		inv *services.InvalidLinkError
		nf  *services.LinkNotFoundError
		se  *services.ShortenError
	)
	switch {
	case errors.Is(err, services.ErrNoURLs):
		return b.Texts.ConverterNoURLs()
	case errors.As(err, &inv):
		return b.Texts.ConverterInvalid(inv.URL)
	case errors.As(err, &nf):
		return b.Texts.ConverterUnknown(nf.URL)
	case errors.As(err, &se):
		zerolog.Ctx(ctx).Warn().Err(err).Msg("convert: shortening rejected")
		return b.Texts.ConverterShortenFailed(se.URL)
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("convert failed")
		return b.Texts.ConverterFailed()
	}
}

/* ---------------- file server ---------------- */

// FileServerBot answers "/start <token>" with the stored file.
type FileServerBot struct {
	Out     Messenger
	Resolve Resolver
}

// Handle implements Handler. Everything but /start is ignored.
func (b *FileServerBot) Handle(ctx context.Context, msg domain.InboundMessage) {
	cmd, args, ok := msg.Command()
	if !ok || cmd != "start" {
		return
	}
	token := firstArg(args)
	lg := zerolog.Ctx(ctx).With().Str("token", token).Logger()

	res, err := b.Resolve.Resolve(ctx, msg.UserID, msg.ChatID, token)
	switch res {
	case services.Rejected:
		lg.Warn().Str("username", msg.Username).Msg("file request without token")
		reply(ctx, b.Out, msg.ChatID, textInvalidAccess)
	case services.JoinRequired:
		if err != nil {
			lg.Warn().Err(err).Msg("membership lookup failed; asking to join")
		} else {
			lg.Info().Msg("join required")
		}
		if err := b.Out.SendJoinPrompt(ctx, msg.ChatID, textJoinPrompt, token); err != nil {
			lg.Warn().Err(err).Msg("send join prompt failed")
		}
	case services.NotFound:
		switch {
		case err == nil:
			lg.Warn().Msg("file not found")
			reply(ctx, b.Out, msg.ChatID, textFileNotFound)
		case errors.Is(err, services.ErrStoreUnavailable):
			lg.Error().Err(err).Msg("mapping lookup failed")
			reply(ctx, b.Out, msg.ChatID, textFileUnavailable)
		default:
			lg.Error().Err(err).Msg("file delivery failed")
			reply(ctx, b.Out, msg.ChatID, textAccessDenied)
		}
	case services.Delivered:
		lg.Info().Msg("file delivered")
	}
}
