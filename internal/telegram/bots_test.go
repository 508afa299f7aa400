package telegram

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/go-linkbox/internal/domain"
	"github.com/tbourn/go-linkbox/internal/services"
)

var testTexts = Texts{Domain: "viralbox.in", Support: "@viralbox_support"}

func cmdMsg(userID int64, text string) domain.InboundMessage {
	return domain.InboundMessage{ChatID: userID, UserID: userID, MessageID: 1, FirstName: "ann", Text: text}
}

func mediaMsg(userID int64, caption string) domain.InboundMessage {
	return domain.InboundMessage{
		ChatID: userID, UserID: userID, MessageID: 44, Caption: caption,
		Media: &domain.Media{Kind: domain.MediaVideo, FileID: "F1"},
	}
}

/* ---------------- uploader ---------------- */

func newUploader() (*UploaderBot, *fakeOut, *fakeKeys, *fakePublisher) {
	out, keys, pub := &fakeOut{}, newFakeKeys(), &fakePublisher{}
	return &UploaderBot{Out: out, Keys: keys, Publish: pub, Texts: testTexts}, out, keys, pub
}

func TestUploader_Start(t *testing.T) {
	b, out, keys, _ := newUploader()
	ctx := context.Background()

	b.Handle(ctx, cmdMsg(1, "/start"))
	if !strings.HasPrefix(out.last(), "👋 Welcome Ann to viralbox.in Uploader Bot!") ||
		!strings.Contains(out.last(), "https://viralbox.in/member/tools/api") {
		t.Fatalf("unexpected welcome %q", out.last())
	}

	keys.keys[1] = "K"
	b.Handle(ctx, cmdMsg(1, "/start@linkbox_bot"))
	if out.last() != "📁 Send A Media To Upload !" {
		t.Fatalf("unexpected ready text %q", out.last())
	}
}

func TestUploader_SetAPI(t *testing.T) {
	b, out, keys, _ := newUploader()
	ctx := context.Background()

	b.Handle(ctx, cmdMsg(1, "/set_api"))
	if out.last() != testTexts.UploaderSetAPIUsage() || len(keys.keys) != 0 {
		t.Fatalf("usage expected, got %q (keys %v)", out.last(), keys.keys)
	}

	b.Handle(ctx, cmdMsg(1, "/set_api KEY1 extra"))
	b.Handle(ctx, cmdMsg(1, "/set_api KEY2"))
	if keys.keys[1] != "KEY2" || out.last() != testTexts.UploaderKeySaved() {
		t.Fatalf("key %q reply %q", keys.keys[1], out.last())
	}

	keys.saveErr = errBoom
	b.Handle(ctx, cmdMsg(1, "/set_api KEY3"))
	if out.last() != testTexts.UploaderFailed() {
		t.Fatalf("store failure should answer generically, got %q", out.last())
	}
}

func TestUploader_MediaFlow(t *testing.T) {
	b, out, keys, pub := newUploader()
	ctx := context.Background()

	b.Handle(ctx, mediaMsg(1, ""))
	if out.last() != testTexts.UploaderNeedKey() || len(pub.calls) != 0 {
		t.Fatalf("expected key prompt without publishing, got %q", out.last())
	}

	keys.keys[1] = "K"
	pub.res = &services.PublishResult{Token: "aB3dE9", ShortURL: "https://viralbox.in/s1"}
	b.Handle(ctx, mediaMsg(1, ""))
	if want := (publishCall{"K", 1, 44}); !reflect.DeepEqual(pub.calls[0], want) {
		t.Fatalf("publish call %+v; want %+v", pub.calls[0], want)
	}
	if out.last() != "📤 Uploaded Successfully!\n\n🔗 Share Link:\nhttps://viralbox.in/s1" {
		t.Fatalf("unexpected success reply %q", out.last())
	}

	pub.res, pub.err = nil, &services.ShortenError{URL: "https://w/x", Err: errBoom}
	b.Handle(ctx, mediaMsg(1, ""))
	if out.last() != testTexts.UploaderShortenFailed() {
		t.Fatalf("unexpected shorten failure reply %q", out.last())
	}

	pub.err = fmt.Errorf("%w: disk", services.ErrStoreUnavailable)
	b.Handle(ctx, mediaMsg(1, ""))
	if out.last() != testTexts.UploaderFailed() {
		t.Fatalf("unexpected generic failure reply %q", out.last())
	}
}

func TestUploader_IgnoresPlainTextAndUnknownCommands(t *testing.T) {
	b, out, _, pub := newUploader()
	b.Handle(context.Background(), cmdMsg(1, "hello"))
	b.Handle(context.Background(), cmdMsg(1, "/unknown"))
	if len(out.texts) != 0 || len(pub.calls) != 0 {
		t.Fatalf("expected silence, got %v", out.texts)
	}
	b.Handle(context.Background(), cmdMsg(1, "/help"))
	if out.last() != "Hii For Any Query Contact Support - @viralbox_support" {
		t.Fatalf("unexpected help %q", out.last())
	}
}

func TestUploader_KeyStoreDownRepliesGenericFailure(t *testing.T) {
	b, out, keys, pub := newUploader()
	keys.getErr = fmt.Errorf("%w: down", services.ErrStoreUnavailable)

	b.Handle(context.Background(), mediaMsg(1, ""))
	if out.last() != testTexts.UploaderFailed() || len(pub.calls) != 0 {
		t.Fatalf("media: unexpected reply %q", out.last())
	}
	b.Handle(context.Background(), cmdMsg(1, "/start"))
	if out.last() != testTexts.UploaderFailed() {
		t.Fatalf("/start: unexpected reply %q", out.last())
	}
}

/* ---------------- converter ---------------- */

func newConverter() (*ConverterBot, *fakeOut, *fakeKeys, *fakeConverter) {
	out, keys, conv := &fakeOut{}, newFakeKeys(), &fakeConverter{}
	return &ConverterBot{Out: out, Keys: keys, Convert: conv, Texts: testTexts}, out, keys, conv
}

func TestConverter_Commands(t *testing.T) {
	b, out, keys, _ := newConverter()
	ctx := context.Background()

	b.Handle(ctx, cmdMsg(1, "/start"))
	if !strings.Contains(out.last(), "I am Link Converter Bot.") ||
		!strings.Contains(out.last(), "/help - Support - @viralbox_support") {
		t.Fatalf("unexpected welcome %q", out.last())
	}

	b.Handle(ctx, cmdMsg(1, "/set_api"))
	if out.last() != "❌ Correct usage: /set_api <API_KEY>" {
		t.Fatalf("unexpected usage %q", out.last())
	}
	b.Handle(ctx, cmdMsg(1, "/set_api  KEY1"))
	if keys.keys[1] != "KEY1" || out.last() != "✅ API Key Saved Successfully!" {
		t.Fatalf("key %q reply %q", keys.keys[1], out.last())
	}

	b.Handle(ctx, cmdMsg(1, "/start"))
	if out.last() != "📁 Send A Link To Convert !" {
		t.Fatalf("unexpected ready %q", out.last())
	}
	b.Handle(ctx, cmdMsg(1, "/help"))
	if out.last() != testTexts.Help() {
		t.Fatalf("unexpected help %q", out.last())
	}
}

func TestConverter_NeedsKey(t *testing.T) {
	b, out, _, conv := newConverter()
	b.Handle(context.Background(), cmdMsg(1, "https://viralbox.in/a"))
	if out.last() != "❌ Please set your API key first:\n/set_api <API_KEY>" || conv.calls != 0 {
		t.Fatalf("unexpected reply %q", out.last())
	}
}

func TestConverter_KeyStoreDownRepliesGenericFailure(t *testing.T) {
	b, out, keys, conv := newConverter()
	keys.getErr = fmt.Errorf("%w: down", services.ErrStoreUnavailable)

	b.Handle(context.Background(), cmdMsg(1, "https://viralbox.in/a"))
	if out.last() != testTexts.ConverterFailed() || conv.calls != 0 {
		t.Fatalf("text: unexpected reply %q", out.last())
	}
	b.Handle(context.Background(), cmdMsg(1, "/start"))
	if out.last() != testTexts.ConverterFailed() {
		t.Fatalf("/start: unexpected reply %q", out.last())
	}
}

func TestConverter_TextSuccess(t *testing.T) {
	b, out, keys, conv := newConverter()
	keys.keys[1] = "K"
	conv.out = []string{"https://viralbox.in/n1", "https://viralbox.in/n2"}

	b.Handle(context.Background(), cmdMsg(1, "https://viralbox.in/a and https://viralbox.in/b"))
	if conv.gotKey != "K" || !reflect.DeepEqual(conv.gotURLs, []string{"https://viralbox.in/a", "https://viralbox.in/b"}) {
		t.Fatalf("convert got %q %v", conv.gotKey, conv.gotURLs)
	}
	want := "✅Video Link\nhttps://viralbox.in/n1\n✅Video Link\nhttps://viralbox.in/n2"
	if out.last() != want {
		t.Fatalf("reply %q; want %q", out.last(), want)
	}
}

func TestConverter_UnknownCommandIsText(t *testing.T) {
	b, _, keys, conv := newConverter()
	keys.keys[1] = "K"
	conv.out = []string{"x"}
	b.Handle(context.Background(), cmdMsg(1, "/go https://viralbox.in/a"))
	if !reflect.DeepEqual(conv.gotURLs, []string{"https://viralbox.in/a"}) {
		t.Fatalf("expected command text to be scanned, got %v", conv.gotURLs)
	}
}

func TestConverter_MediaReplay(t *testing.T) {
	b, out, keys, conv := newConverter()
	keys.keys[1] = "K"
	conv.out = []string{"https://viralbox.in/n1"}

	b.Handle(context.Background(), mediaMsg(1, "watch https://viralbox.in/a"))
	if len(out.media) != 1 || len(out.texts) != 0 {
		t.Fatalf("expected one media replay and no text, got %+v / %v", out.media, out.texts)
	}
	m := out.media[0]
	if m.media.FileID != "F1" || m.media.Kind != domain.MediaVideo || m.caption != "✅Video Link\nhttps://viralbox.in/n1" {
		t.Fatalf("unexpected replay %+v", m)
	}
}

func TestConverter_CaptionFallsBackToText(t *testing.T) {
	b, _, keys, conv := newConverter()
	keys.keys[1] = "K"
	conv.out = []string{"x"}
	msg := mediaMsg(1, "no link here")
	msg.Text = "https://viralbox.in/t"
	b.Handle(context.Background(), msg)
	if !reflect.DeepEqual(conv.gotURLs, []string{"https://viralbox.in/t"}) {
		t.Fatalf("got %v", conv.gotURLs)
	}
}

func TestConverter_FailureReplies(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.ErrNoURLs, "❌ Please send a valid viralbox.in link."},
		{&services.InvalidLinkError{URL: "https://evil.com/x"}, "❌ Only viralbox.in links are supported! (Invalid: https://evil.com/x)"},
		{&services.LinkNotFoundError{URL: "https://viralbox.in/zz"}, "❌ This link does not exist in database. (https://viralbox.in/zz)"},
		{&services.ShortenError{URL: "https://viralbox.in/b", Err: errBoom}, "❌ Failed to convert link using your API key. (https://viralbox.in/b)"},
		{fmt.Errorf("%w: x", services.ErrStoreUnavailable), testTexts.ConverterFailed()},
	}
	for _, tc := range cases {
		b, out, keys, conv := newConverter()
		keys.keys[1] = "K"
		conv.err = tc.err
		b.Handle(context.Background(), mediaMsg(1, "https://viralbox.in/a"))
		if len(out.texts) != 1 || out.texts[0] != tc.want || len(out.media) != 0 {
			t.Fatalf("%v: replies %v media %d; want only %q", tc.err, out.texts, len(out.media), tc.want)
		}
	}
}

func TestBots_CommandArgumentAfterNewline(t *testing.T) {
	up, out, keys, _ := newUploader()
	up.Handle(context.Background(), cmdMsg(1, "/set_api\nKEY9"))
	if keys.keys[1] != "KEY9" || out.last() != testTexts.UploaderKeySaved() {
		t.Fatalf("key %q reply %q", keys.keys[1], out.last())
	}

	res := &fakeResolver{res: services.Delivered}
	fs := &FileServerBot{Out: &fakeOut{}, Resolve: res}
	fs.Handle(context.Background(), cmdMsg(7, "/start\taB3dE9"))
	if res.gotToken != "aB3dE9" {
		t.Fatalf("token %q", res.gotToken)
	}
}

func TestConverter_NoURLs(t *testing.T) {
	b, out, keys, _ := newConverter()
	keys.keys[1] = "K"
	b.Handle(context.Background(), cmdMsg(1, "just words"))
	if out.last() != testTexts.ConverterNoURLs() {
		t.Fatalf("unexpected reply %q", out.last())
	}
}

/* ---------------- file server ---------------- */

func TestFileServer_Resolutions(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		res     services.Resolution
		err     error
		texts   []string
		prompts int
	}{
		{"rejected", "/start", services.Rejected, nil, []string{textInvalidAccess}, 0},
		{"join", "/start aB3dE9", services.JoinRequired, nil, nil, 1},
		{"join on lookup error", "/start aB3dE9", services.JoinRequired, errBoom, nil, 1},
		{"not found", "/start aB3dE9", services.NotFound, nil, []string{textFileNotFound}, 0},
		{"store down", "/start aB3dE9", services.NotFound, fmt.Errorf("%w: x", services.ErrStoreUnavailable), []string{textFileUnavailable}, 0},
		{"delivery failed", "/start aB3dE9", services.NotFound, errBoom, []string{textAccessDenied}, 0},
		{"delivered", "/start aB3dE9", services.Delivered, nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, res := &fakeOut{}, &fakeResolver{res: tc.res, err: tc.err}
			b := &FileServerBot{Out: out, Resolve: res}
			b.Handle(context.Background(), cmdMsg(7, tc.text))

			if !reflect.DeepEqual(out.texts, tc.texts) {
				t.Fatalf("texts %v; want %v", out.texts, tc.texts)
			}
			if len(out.prompts) != tc.prompts {
				t.Fatalf("prompts %d; want %d", len(out.prompts), tc.prompts)
			}
			if tc.prompts == 1 && (out.prompts[0].token != "aB3dE9" || out.prompts[0].text != textJoinPrompt) {
				t.Fatalf("unexpected prompt %+v", out.prompts[0])
			}
		})
	}
}

func TestFileServer_IgnoresEverythingButStart(t *testing.T) {
	out, res := &fakeOut{}, &fakeResolver{res: services.Delivered}
	b := &FileServerBot{Out: out, Resolve: res}
	b.Handle(context.Background(), cmdMsg(7, "hello"))
	b.Handle(context.Background(), cmdMsg(7, "/help"))
	b.Handle(context.Background(), mediaMsg(7, ""))
	if res.gotToken != "" || len(out.texts) != 0 {
		t.Fatalf("expected no activity, got token %q texts %v", res.gotToken, out.texts)
	}
}

/* ---------------- texts ---------------- */

func TestGreetingName(t *testing.T) {
	cases := map[string]string{"": "User", "  ": "User", "ann": "Ann", "mary jane": "Mary Jane", "ÉLODIE": "Élodie"}
	for in, want := range cases {
		if got := greetingName(in); got != want {
			t.Fatalf("greetingName(%q) = %q; want %q", in, got, want)
		}
	}
}
