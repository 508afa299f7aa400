package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-linkbox/internal/observability"
)

// Resolution is the terminal state of a file request.
type Resolution int

const (
	// Rejected: the request carried no token.
	Rejected Resolution = iota
	// JoinRequired: the user is not a member of the gate channel, or the
	// membership lookup failed.
	JoinRequired
	// NotFound: the token is unknown or the stored message could not be
	// delivered.
	NotFound
	// Delivered: the stored message was copied to the user.
	Delivered
)

func (r Resolution) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case JoinRequired:
		return "join_required"
	case NotFound:
		return "not_found"
	case Delivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// FileService resolves mapping tokens to stored media, gated on membership.
type FileService struct {
	Mappings MappingStore
	Gate     Gate
	Deliver  Deliverer
}

// NewFileService wires a FileService.
func NewFileService(m MappingStore, g Gate, d Deliverer) *FileService {
	return &FileService{Mappings: m, Gate: g, Deliver: d}
}

// Resolve handles a file request by userID in chatID for token.
//
// The membership check runs before the token lookup, so a non-member is
// asked to join whatever the token. A failed membership lookup is treated as
// not joined. The returned error is informational (for logging) and never
// changes the resolution the caller must act on.
func (s *FileService) Resolve(ctx context.Context, userID, chatID int64, token string) (res Resolution, err error) {
	ctx, span := observability.StartSpan(ctx, "services/FileService", "Resolve",
		attribute.Int64("user.id", userID),
		attribute.String("mapping.token", token),
	)
	defer func() {
		span.SetAttributes(attribute.String("resolution", res.String()))
		observability.EndSpan(span, err)
		outcome := observability.OutcomeOK
		if res != Delivered {
			outcome = observability.OutcomeRejected
		}
		observability.WorkflowResults.WithLabelValues("resolve", outcome).Inc()
	}()

	if token == "" {
		return Rejected, nil
	}

	status, err := s.Gate.MemberStatus(ctx, userID)
	if err != nil {
		return JoinRequired, fmt.Errorf("membership check: %w", err)
	}
	if !status.Joined() {
		return JoinRequired, nil
	}

	storedID, err := s.Mappings.ResolveMapping(ctx, token)
	if err != nil {
		err = storeErr(err, ErrMappingNotFound)
		if errors.Is(err, ErrMappingNotFound) {
			return NotFound, nil
		}
		return NotFound, err
	}

	if err := s.Deliver.DeliverStored(ctx, chatID, storedID); err != nil {
		return NotFound, fmt.Errorf("deliver stored message %d: %w", storedID, err)
	}
	return Delivered, nil
}
