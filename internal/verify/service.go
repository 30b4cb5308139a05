// Package verify contains the admin verification workflow. It is
// transport-agnostic: the web layer calls into it, tests drive it directly.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"internmatch/listing-service/internal/model"
	"internmatch/listing-service/internal/ports"
)

const entityTypeListing = "LISTING"

// ErrNotFound is returned when the target listing is missing. The transition
// aborts with no partial effect and no audit entry.
var ErrNotFound = ports.ErrNotFound

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Service applies audited trust transitions to listings.
type Service struct {
	uow ports.UnitOfWork
	rdb *redis.Client
}

// NewService returns a configured Service. rdb may be nil; event publishing
// is then skipped.
func NewService(uow ports.UnitOfWork, rdb *redis.Client) *Service {
	return &Service{uow: uow, rdb: rdb}
}

// Transition moves one listing to newStatus on behalf of adminID. The status
// update and its audit entry commit or roll back as one transaction.
func (s *Service) Transition(ctx context.Context, adminID string, id int64, newStatus model.VerificationStatus) (*model.Listing, error) {
	if !IsAdminDecision(newStatus) {
		return nil, &ValidationError{Msg: fmt.Sprintf("status %q cannot be set by an admin action", newStatus)}
	}

	updated, err := s.transitionTx(ctx, adminID, id, newStatus, actionFor(newStatus, false), nil)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, adminID, id, updated.Status)
	return updated, nil
}

// BulkTransition applies the same transition to every ID, each in its own
// transaction with its own audit entry. A failing listing is counted and
// skipped; the rest of the batch proceeds.
func (s *Service) BulkTransition(ctx context.Context, adminID string, ids []int64, newStatus model.VerificationStatus) ([]model.Listing, int, error) {
	if !IsAdminDecision(newStatus) {
		return nil, 0, &ValidationError{Msg: fmt.Sprintf("status %q cannot be set by an admin action", newStatus)}
	}
	if len(ids) == 0 {
		return nil, 0, &ValidationError{Msg: "no listing ids supplied"}
	}

	details := map[string]any{"batch_size": len(ids)}
	action := actionFor(newStatus, true)

	updated := make([]model.Listing, 0, len(ids))
	failed := 0
	for _, id := range ids {
		lst, err := s.transitionTx(ctx, adminID, id, newStatus, action, details)
		if err != nil {
			slog.Warn("bulk transition failed for listing", "listingId", id, "err", err)
			failed++
			continue
		}
		updated = append(updated, *lst)
		s.publishEvent(ctx, adminID, id, lst.Status)
	}

	return updated, failed, nil
}

// transitionTx performs one audited transition inside a single transaction.
func (s *Service) transitionTx(ctx context.Context, adminID string, id int64, newStatus model.VerificationStatus, action model.AuditAction, extra map[string]any) (*model.Listing, error) {
	var updated model.Listing

	err := s.uow.WithTx(ctx, func(tx ports.TxStore) error {
		current, err := tx.GetListing(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load listing %d: %w", id, err)
		}

		if !IsTransitionAllowed(current.Status, newStatus) {
			return &ValidationError{
				Msg: fmt.Sprintf("transition %s → %s is not allowed", current.Status, newStatus),
			}
		}

		if err := tx.SetStatus(ctx, id, newStatus, nil); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		details := map[string]any{"previous_status": string(current.Status)}
		for k, v := range extra {
			details[k] = v
		}
		payload, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}

		entry := model.AuditLogEntry{
			AdminID:    adminID,
			Action:     action,
			EntityType: entityTypeListing,
			EntityID:   fmt.Sprintf("%d", id),
			Details:    payload,
		}
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}

		updated = *current
		updated.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// publishEvent notifies downstream consumers of a committed transition
// (non-fatal).
func (s *Service) publishEvent(ctx context.Context, adminID string, id int64, status model.VerificationStatus) {
	if s.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]string{
		"type":      "EVENT_LISTING_REVIEWED",
		"listingId": fmt.Sprintf("%d", id),
		"adminId":   adminID,
		"status":    string(status),
		"at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err := s.rdb.Publish(ctx, "EVENT_LISTING_REVIEWED", event).Err(); err != nil {
		slog.Warn("publish EVENT_LISTING_REVIEWED failed", "err", err)
	}
}

func actionFor(status model.VerificationStatus, bulk bool) model.AuditAction {
	switch {
	case status == model.StatusVerified && bulk:
		return model.ActionBulkVerify
	case status == model.StatusVerified:
		return model.ActionVerify
	case bulk:
		return model.ActionBulkReject
	default:
		return model.ActionReject
	}
}
