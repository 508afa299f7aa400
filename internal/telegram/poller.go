package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/observability"
)

// Defaults for Poller timings.
const (
	DefaultPollTimeout = 50 * time.Second
	DefaultPollBackoff = 2 * time.Second
)

// Handler processes one inbound message. Errors are the handler's own
// business: it replies to the user and logs. A panic is recovered by the
// poller and only affects the current update.
type Handler interface {
	Handle(ctx context.Context, msg domain.InboundMessage)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg domain.InboundMessage)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg domain.InboundMessage) { f(ctx, msg) }

// UpdateSource long-polls updates from offset. *Client implements it.
type UpdateSource interface {
	Updates(ctx context.Context, offset int, timeout time.Duration) ([]tgbotapi.Update, error)
}

// Poller is the receive loop of one bot. Updates are processed one at a
// time, in order; the offset advances past every update handed out, so an
// update is acknowledged (on the next poll) whether or not handling it
// succeeded.
type Poller struct {
	Name    string
	Source  UpdateSource
	Handler Handler
	Timeout time.Duration // server-side long-poll wait
	Backoff time.Duration // fixed sleep after a transport error

	offset int
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller builds a poller with the default timings.
func NewPoller(name string, src UpdateSource, h Handler) *Poller {
	return &Poller{
		Name:    name,
		Source:  src,
		Handler: h,
		Timeout: DefaultPollTimeout,
		Backoff: DefaultPollBackoff,
	}
}

// Offset returns the next update id the poller will ask for.
func (p *Poller) Offset() int { return p.offset }

// Run polls until ctx is done and then returns ctx.Err(). Transport errors
// are logged and retried after Backoff; they never end the loop.
func (p *Poller) Run(ctx context.Context) error {
	lg := log.With().Str("bot", p.Name).Logger()
	lg.Info().Int("offset", p.offset).Msg("polling started")
	defer lg.Info().Int("offset", p.offset).Msg("polling stopped")

	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	timeout, backoff := p.Timeout, p.Backoff
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if backoff <= 0 {
		backoff = DefaultPollBackoff
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.Source.Updates(ctx, p.offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.PollErrors.WithLabelValues(p.Name).Inc()
			lg.Warn().Err(err).Dur("backoff", backoff).Msg("getUpdates failed")
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			p.dispatch(ctx, lg, u)
		}
	}
}

// dispatch hands one update to the handler, recovering from panics.
func (p *Poller) dispatch(ctx context.Context, lg zerolog.Logger, u tgbotapi.Update) {
	msg, ok := toInbound(u)
	if !ok {
		observability.BotUpdates.WithLabelValues(p.Name, "ignored").Inc()
		return
	}
	observability.BotUpdates.WithLabelValues(p.Name, kindOf(msg)).Inc()

	ul := lg.With().
		Str("correlation_id", uuid.NewString()).
		Int("update_id", msg.UpdateID).
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.UserID).
		Logger()
	ctx = ul.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			observability.HandlerPanics.WithLabelValues(p.Name).Inc()
			ul.Error().
				Err(fmt.Errorf("panic: %v", r)).
				Bytes("stack", debug.Stack()).
				Msg("handler panic recovered")
		}
	}()
	p.Handler.Handle(ctx, msg)
}

func kindOf(m domain.InboundMessage) string {
	switch {
	case m.Media != nil:
		return "media"
	case isCommand(m):
		return "command"
	default:
		return "text"
	}
}

func isCommand(m domain.InboundMessage) bool {
	_, _, ok := m.Command()
	return ok
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
