// Package services – LinkService
//
// LinkService owns the link/mapping lifecycle. It relates four things: the
// stored message in the storage channel, a random mapping token, the long
// URL "<worker-domain>/<token>" and the short URL returned by the shortening
// service.
//
// Publish runs the steps in order (relay, token, mapping, long URL, shorten,
// link pair) and stops at the first failure. Earlier steps are not rolled
// back: a failed shortening leaves an orphaned copy in the storage channel and
// a mapping nobody links to, which is harmless.
//
// Convert re-shortens short links under the requester's key. The batch is
// processed sequentially and aborted on the first failing URL; nothing after
// it is attempted and no partial result is returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-linkbox/internal/observability"
)

// PublishResult describes a successfully published media message.
type PublishResult struct {
	StoredMessageID int
	Token           string
	LongURL         string
	ShortURL        string
}

// LinkService implements the publish and convert workflows.
type LinkService struct {
	Mappings  MappingStore
	Links     LinkStore
	Shortener Shortener
	Relay     Relay

	// WorkerDomain prefixes every long URL (e.g. https://w.example).
	WorkerDomain string
	// ShortDomain is the host of links accepted by Convert.
	ShortDomain string

	// NewToken mints mapping tokens; defaults to the package NewToken.
	NewToken func() (string, error)
}

// NewLinkService wires a LinkService. store must satisfy both MappingStore
// and LinkStore (repo.Store does).
func NewLinkService(store interface {
	MappingStore
	LinkStore
}, sh Shortener, relay Relay, workerDomain, shortDomain string) *LinkService {
	return &LinkService{
		Mappings:     store,
		Links:        store,
		Shortener:    sh,
		Relay:        relay,
		WorkerDomain: strings.TrimRight(workerDomain, "/"),
		ShortDomain:  shortDomain,
		NewToken:     NewToken,
	}
}

// Publish stores the inbound message (fromChatID, messageID) and returns its
// share link, shortened under apiKey.
//
// Errors: ErrRelayFailed, ErrStoreUnavailable (wrapped) or *ShortenError
// carrying the long URL.
func (s *LinkService) Publish(ctx context.Context, apiKey string, fromChatID int64, messageID int) (res *PublishResult, err error) {
	ctx, span := observability.StartSpan(ctx, "services/LinkService", "Publish",
		attribute.Int64("chat.id", fromChatID),
		attribute.Int("message.id", messageID),
	)
	defer func() {
		observability.EndSpan(span, err)
		recordOutcome("publish", err)
	}()

	// 1. relay into the storage channel
	storedID, err := s.Relay.StoreMessage(ctx, fromChatID, messageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelayFailed, err)
	}

	// 2. token
	newToken := s.NewToken
	if newToken == nil {
		newToken = NewToken
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("mapping.token", token))

	// 3. mapping
	if err := s.Mappings.SaveMapping(ctx, token, storedID); err != nil {
		return nil, storeErr(err, ErrStoreUnavailable)
	}

	// 4. long URL
	long := LongURL(s.WorkerDomain, token)

	// 5. shorten under the requester's key
	short, err := s.Shortener.Shorten(ctx, apiKey, long)
	if err != nil {
		return nil, &ShortenError{URL: long, Err: err}
	}

	// 6. link pair
	if err := s.Links.SaveLinkPair(ctx, long, short); err != nil {
		return nil, storeErr(err, ErrStoreUnavailable)
	}

	return &PublishResult{
		StoredMessageID: storedID,
		Token:           token,
		LongURL:         long,
		ShortURL:        short,
	}, nil
}

// Convert re-shortens every URL in urls under apiKey and returns the new
// short URLs in input order.
//
// Per URL: the host must be ShortDomain or a subdomain (*InvalidLinkError),
// its long URL must be on record (*LinkNotFoundError), the shortening call
// must succeed (*ShortenError), then the new pair is recorded. The first
// failure aborts the whole batch.
func (s *LinkService) Convert(ctx context.Context, apiKey string, urls []string) (out []string, err error) {
	ctx, span := observability.StartSpan(ctx, "services/LinkService", "Convert",
		attribute.Int("urls", len(urls)))
	defer func() {
		observability.EndSpan(span, err)
		recordOutcome("convert", err)
	}()

	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	out = make([]string, 0, len(urls))
	for _, u := range urls {
		if !OnDomain(u, s.ShortDomain) {
			return nil, &InvalidLinkError{URL: u}
		}

		long, err := s.Links.ResolveLongURL(ctx, u)
		if err != nil {
			return nil, storeErr(err, &LinkNotFoundError{URL: u})
		}

		short, err := s.Shortener.Shorten(ctx, apiKey, long)
		if err != nil {
			return nil, &ShortenError{URL: u, Err: err}
		}

		if err := s.Links.SaveLinkPair(ctx, long, short); err != nil {
			return nil, storeErr(err, ErrStoreUnavailable)
		}
		out = append(out, short)
	}
	return out, nil
}

// recordOutcome counts a finished workflow. User-caused failures (bad links,
// unknown links, rejected keys) count as rejected; the rest as failed.
func recordOutcome(workflow string, err error) {
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = observability.OutcomeFailed
		var (
			inv *InvalidLinkError
			nf  *LinkNotFoundError
			se  *ShortenError
		)
		if errors.As(err, &inv) || errors.As(err, &nf) || errors.As(err, &se) || errors.Is(err, ErrNoURLs) {
			outcome = observability.OutcomeRejected
		}
	}
	observability.WorkflowResults.WithLabelValues(workflow, outcome).Inc()
}
