package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/services"
)

var errBoom = errors.New("boom")

/* ---------------- botAPI ---------------- */

type fakeAPI struct {
	mu sync.Mutex

	updateCfgs []tgbotapi.UpdateConfig
	updates    func(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)

	sent     []tgbotapi.Chattable
	sendErr  error
	requests []tgbotapi.Chattable
	reqErr   error

	copies  []tgbotapi.CopyMessageConfig
	copyID  int
	copyErr error

	memberCfgs []tgbotapi.GetChatMemberConfig
	status     string
	memberErr  error
}

func (f *fakeAPI) GetUpdates(c tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	f.updateCfgs = append(f.updateCfgs, c)
	fn := f.updates
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(c)
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) CopyMessage(c tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, c)
	if f.copyErr != nil {
		return tgbotapi.MessageID{}, f.copyErr
	}
	return tgbotapi.MessageID{MessageID: f.copyID}, nil
}

func (f *fakeAPI) GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCfgs = append(f.memberCfgs, c)
	if f.memberErr != nil {
		return tgbotapi.ChatMember{}, f.memberErr
	}
	return tgbotapi.ChatMember{Status: f.status}, nil
}

/* ---------------- Messenger ---------------- */

type sentMedia struct {
	chatID  int64
	media   domain.Media
	caption string
}

type sentPrompt struct {
	chatID      int64
	text, token string
}

type fakeOut struct {
	texts   []string
	media   []sentMedia
	prompts []sentPrompt
	err     error
}

func (f *fakeOut) SendText(_ context.Context, _ int64, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeOut) SendMedia(_ context.Context, chatID int64, m domain.Media, caption string) error {
	f.media = append(f.media, sentMedia{chatID, m, caption})
	return f.err
}

func (f *fakeOut) SendJoinPrompt(_ context.Context, chatID int64, text, token string) error {
	f.prompts = append(f.prompts, sentPrompt{chatID, text, token})
	return f.err
}

func (f *fakeOut) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

/* ---------------- services ---------------- */

type fakeKeys struct {
	keys    map[int64]string
	getErr  error
	saveErr error
}

func newFakeKeys() *fakeKeys { return &fakeKeys{keys: map[int64]string{}} }

func (f *fakeKeys) SetAPIKey(_ context.Context, userID int64, key string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.keys[userID] = key
	return nil
}

func (f *fakeKeys) APIKey(_ context.Context, userID int64) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	k, ok := f.keys[userID]
	if !ok {
		return "", services.ErrNoAPIKey
	}
	return k, nil
}

type publishCall struct {
	key       string
	chatID    int64
	messageID int
}

type fakePublisher struct {
	calls []publishCall
	res   *services.PublishResult
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, key string, chatID int64, messageID int) (*services.PublishResult, error) {
	f.calls = append(f.calls, publishCall{key, chatID, messageID})
	return f.res, f.err
}

type fakeConverter struct {
	gotKey  string
	gotURLs []string
	calls   int
	out     []string
	err     error
}

func (f *fakeConverter) Convert(_ context.Context, key string, urls []string) ([]string, error) {
	f.calls++
	f.gotKey, f.gotURLs = key, urls
	if f.err != nil {
		return nil, f.err
	}
	if len(urls) == 0 {
		return nil, services.ErrNoURLs
	}
	return f.out, nil
}

type fakeResolver struct {
	gotToken string
	res      services.Resolution
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ int64, token string) (services.Resolution, error) {
	f.gotToken = token
	return f.res, f.err
}

/* ---------------- UpdateSource ---------------- */

// scriptSource replays batches (or errors) in order, then cancels the run.
type scriptSource struct {
	mu      sync.Mutex
	steps   []scriptStep
	offsets []int
	cancel  context.CancelFunc
}

type scriptStep struct {
	updates []tgbotapi.Update
	err     error
}

func (s *scriptSource) Updates(ctx context.Context, offset int, _ time.Duration) ([]tgbotapi.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if len(s.steps) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.updates, st.err
}

func textUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id * 10,
			Chat:      &tgbotapi.Chat{ID: chatID},
			From:      &tgbotapi.User{ID: chatID, FirstName: "ann"},
			Text:      text,
		},
	}
}
