// Package telegram adapts the Telegram Bot API to the workflows.
//
// Client wraps one bot identity (token) and implements the transport-side
// ports of the services package: relaying a message into the storage
// channel, checking gate-channel membership and delivering stored messages.
// It also sends the replies the bots compose (text, media, join prompt).
//
// Poller drives one bot: it long-polls getUpdates from the last acknowledged
// offset and hands each message to a Handler, sequentially.
//
// UploaderBot, ConverterBot and FileServerBot are the three Handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// botAPI is the subset of *tgbotapi.BotAPI used here.
type botAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)

// Client is one bot identity plus the channels it works with.
type Client struct {
	api      botAPI
	name     string
	username string

	// StorageChatID is the private channel holding uploaded media.
	StorageChatID int64
	// GateChatID is the channel users must join before receiving files.
	GateChatID int64
	// GateLink is the invite link shown in the join prompt.
	GateLink string

	log zerolog.Logger
}

// DefaultRequestSlack is added to the long-poll wait to bound every Bot API
// request, so a half-open connection fails instead of blocking forever.
const DefaultRequestSlack = 10 * time.Second

// Options configures a Client.
type Options struct {
	StorageChatID int64
	GateChatID    int64
	GateLink      string

	// PollTimeout is the long-poll wait the bot's Poller requests
	// (DefaultPollTimeout when zero).
	PollTimeout time.Duration
	// RequestTimeout bounds each Bot API request; zero means
	// PollTimeout + DefaultRequestSlack.
	RequestTimeout time.Duration
	// Endpoint overrides tgbotapi.APIEndpoint.
	Endpoint string
}

func (o Options) requestTimeout() time.Duration {
	if o.RequestTimeout > 0 {
		return o.RequestTimeout
	}
	poll := o.PollTimeout
	if poll <= 0 {
		poll = DefaultPollTimeout
	}
	return poll + DefaultRequestSlack
}

// Dial authenticates token (getMe) and returns a Client named name (used in
// logs and metrics only).
func Dial(token, name string, opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	hc := scrubbingClient{
		c:     &http.Client{Timeout: opts.requestTimeout()},
		token: token,
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, hc)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect %s bot: %w", name, err)
	}
	return NewClient(api, name, api.Self.UserName, opts), nil
}

// scrubbingClient removes the bot token from request URLs carried by
// transport errors; the Bot API puts it in the path.
type scrubbingClient struct {
	c     *http.Client
	token string
}

func (s scrubbingClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := s.c.Do(req)
	var ue *url.Error
	if err != nil && s.token != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, s.token, "<token>")
	}
	return resp, err
}

// NewClient wraps an already-authenticated API handle.
func NewClient(api botAPI, name, username string, opts Options) *Client {
	return &Client{
		api:           api,
		name:          name,
		username:      username,
		StorageChatID: opts.StorageChatID,
		GateChatID:    opts.GateChatID,
		GateLink:      opts.GateLink,
		log:           log.With().Str("bot", name).Logger(),
	}
}

// Name returns the label the client was created with.
func (c *Client) Name() string { return c.name }

// Username returns the bot's @username without the "@".
func (c *Client) Username() string { return c.username }

// DeepLink returns https://t.me/<bot>?start=<payload>.
func (c *Client) DeepLink(payload string) string {
	return DeepLink(c.username, payload)
}

// DeepLink returns https://t.me/<username>?start=<payload>.
func DeepLink(username, payload string) string {
	return "https://t.me/" + username + "?start=" + payload
}

// Updates long-polls getUpdates starting at offset. The call returns early
// with ctx.Err() when ctx is done; the abandoned request's updates are not
// acknowledged and will be delivered again. The request itself ends at the
// client's request timeout at the latest.
func (c *Client) Updates(ctx context.Context, offset int, timeout time.Duration) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	type result struct {
		updates []tgbotapi.Update
		err     error
	}
	done := make(chan result, 1)
	go func() {
		u, err := c.api.GetUpdates(cfg)
		done <- result{u, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.updates, r.err
	}
}

// StoreMessage copies message messageID of fromChatID into the storage
// channel and returns the id of the copy.
func (c *Client) StoreMessage(_ context.Context, fromChatID int64, messageID int) (int, error) {
	id, err := c.api.CopyMessage(tgbotapi.NewCopyMessage(c.StorageChatID, fromChatID, messageID))
	if err != nil {
		return 0, fmt.Errorf("copy to storage: %w", err)
	}
	return id.MessageID, nil
}

// DeliverStored copies the stored message storedID to chatID, preceded by an
// "uploading document" chat action.
func (c *Client) DeliverStored(_ context.Context, chatID int64, storedID int) error {
	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadDocument)); err != nil {
		c.log.Debug().Err(err).Int64("chat_id", chatID).Msg("chat action failed")
	}
	if _, err := c.api.CopyMessage(tgbotapi.NewCopyMessage(chatID, c.StorageChatID, storedID)); err != nil {
		return fmt.Errorf("copy from storage: %w", err)
	}
	return nil
}

// MemberStatus returns the status of userID in the gate channel.
func (c *Client) MemberStatus(_ context.Context, userID int64) (domain.MemberStatus, error) {
	m, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: c.GateChatID,
			UserID: userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return domain.MemberStatus(m.Status), nil
}

// SendText sends a plain-text message with link previews disabled.
func (c *Client) SendText(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := c.api.Send(msg)
	return err
}

// SendJoinPrompt sends text with two buttons: the gate channel invite link
// and a deep link that retries the file request for token.
func (c *Client) SendJoinPrompt(_ context.Context, chatID int64, text, token string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(joinButton, c.GateLink)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(retryButton, c.DeepLink(token))),
	)
	_, err := c.api.Send(msg)
	return err
}

// SendMedia re-sends a hosted file to chatID with caption. Kinds that cannot
// carry a caption (video notes) fall back to a text message with the caption.
func (c *Client) SendMedia(ctx context.Context, chatID int64, m domain.Media, caption string) error {
	if !m.Kind.Captionable() {
		return c.SendText(ctx, chatID, caption)
	}
	file := tgbotapi.FileID(m.FileID)

	var cfg tgbotapi.Chattable
	switch m.Kind {
	case domain.MediaPhoto:
		p := tgbotapi.NewPhoto(chatID, file)
		p.Caption = caption
		cfg = p
	case domain.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = caption
		cfg = v
	case domain.MediaDocument:
		d := tgbotapi.NewDocument(chatID, file)
		d.Caption = caption
		cfg = d
	case domain.MediaAudio:
		a := tgbotapi.NewAudio(chatID, file)
		a.Caption = caption
		cfg = a
	case domain.MediaVoice:
		v := tgbotapi.NewVoice(chatID, file)
		v.Caption = caption
		cfg = v
	case domain.MediaAnimation:
		a := tgbotapi.NewAnimation(chatID, file)
		a.Caption = caption
		cfg = a
	default:
		return fmt.Errorf("send media: unsupported kind %q", m.Kind)
	}
	_, err := c.api.Send(cfg)
	return err
}

// botLogger routes the library's internal logging into zerolog at debug.
type botLogger struct {
	l zerolog.Logger
}

func (b botLogger) Println(v ...any) { b.l.Debug().Msg(fmt.Sprint(v...)) }

func (b botLogger) Printf(format string, v ...any) { b.l.Debug().Msgf(format, v...) }

// InstallLogger routes tgbotapi's package logger into the global zerolog
// logger.
func InstallLogger() {
	_ = tgbotapi.SetLogger(botLogger{l: log.With().Str("component", "tgbotapi").Logger()})
}
