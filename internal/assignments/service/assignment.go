package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	assignmentserrors "beroepsbelg/internal/assignments/errors"
	bookingsrepo "beroepsbelg/internal/bookings/repository"
	bookingsservice "beroepsbelg/internal/bookings/service"
	guidesrepo "beroepsbelg/internal/guides/repository"
	"beroepsbelg/pkg/config"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/events"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/sealer"
	"beroepsbelg/pkg/webhook"

	"golang.org/x/sync/errgroup"
)

// maxParallelOffers bounds concurrent offer webhooks for one request.
const maxParallelOffers = 4

type Notifier interface {
	Send(ctx context.Context, url string, payload any, headers map[string]string) error
}

type TokenSealer interface {
	Seal(bookingID, guideID int64, ttl time.Duration) (string, error)
	Open(token string) (sealer.GuideResponse, error)
}

// OfferResult reports which guides were reached. Skipped guides were marked
// offered without a notification because no offer webhook is configured.
type OfferResult struct {
	Booking  *model.Booking `json:"booking"`
	Notified []int64        `json:"notified"`
	Skipped  []int64        `json:"skipped,omitempty"`
	Failed   []int64        `json:"failed,omitempty"`
}

type AssignmentService interface {
	Offer(ctx context.Context, bookingID int64, guideIDs []int64) (*OfferResult, error)
	Respond(ctx context.Context, bookingID, guideID int64, action Action) (*model.Booking, error)
	RespondWithToken(ctx context.Context, token string, action Action) (*model.Booking, error)
}

type assignmentService struct {
	bookings  bookingsrepo.BookingRepository
	guides    guidesrepo.GuideRepository
	notifier  Notifier
	sealer    TokenSealer
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

// NewAssignmentService wires the dispatcher. tokens may be nil, in which case
// offers carry no response links and token responses are refused.
func NewAssignmentService(
	bookings bookingsrepo.BookingRepository,
	guides guidesrepo.GuideRepository,
	notifier Notifier,
	tokens TokenSealer,
	publisher events.Publisher,
	cfg *config.Config,
) AssignmentService {
	return &assignmentService{
		bookings:  bookings,
		guides:    guides,
		notifier:  notifier,
		sealer:    tokens,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *assignmentService) Offer(ctx context.Context, bookingID int64, guideIDs []int64) (*OfferResult, error) {
	guideIDs = dedupe(guideIDs)
	if len(guideIDs) == 0 {
		return nil, apperrors.InvalidInput(assignmentserrors.ErrNoGuides.Error())
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, bookingsservice.MapError(err, bookingID, "Failed to load booking")
	}
	if booking.Status.Closed() {
		return nil, mapError(assignmentserrors.ErrBookingClosed, bookingID)
	}

	guides, err := s.loadGuides(ctx, guideIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range guideIDs {
		if i := booking.FindGuide(id); i >= 0 && booking.SelectedGuides[i].Status == model.GuideAccepted {
			return nil, mapError(assignmentserrors.ErrGuideAlreadyAccepted, bookingID)
		}
	}

	result := s.notifyGuides(ctx, booking, guides)
	if len(result.Failed) == len(guideIDs) {
		s.cfg.Log.Error("All guide offer notifications failed", "booking_id", bookingID, "guide_ids", guideIDs)
		return nil, apperrors.Upstream("Failed to notify any of the selected guides", nil).
			WithDetails(map[string]any{"failed": result.Failed})
	}

	reached := append(slices.Clone(result.Notified), result.Skipped...)
	updated, err := bookingsrepo.Mutate(ctx, s.bookings, bookingID, s.cfg.OptimisticRetries, func(b *model.Booking) error {
		now := s.now()
		for _, id := range reached {
			if err := offer(b, id, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err, bookingID)
	}
	result.Booking = updated

	for _, id := range reached {
		s.publish(ctx, model.EventGuideOffered, updated, id)
	}

	s.cfg.Log.Info("Guides offered booking",
		"booking_id", bookingID,
		"notified", result.Notified,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"status", updated.Status,
	)
	return result, nil
}

func (s *assignmentService) loadGuides(ctx context.Context, ids []int64) ([]*model.Guide, error) {
	found, err := s.guides.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load guides", err)
	}
	byID := make(map[int64]*model.Guide, len(found))
	for _, g := range found {
		byID[g.ID] = g
	}

	guides := make([]*model.Guide, 0, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			return nil, apperrors.NotFoundWithID("Guide", id)
		}
		guides = append(guides, g)
	}
	return guides, nil
}

// notifyGuides sends one offer webhook per guide and waits for all of them.
func (s *assignmentService) notifyGuides(ctx context.Context, booking *model.Booking, guides []*model.Guide) *OfferResult {
	result := &OfferResult{Notified: []int64{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOffers)
	for _, guide := range guides {
		g.Go(func() error {
			err := s.notifier.Send(gctx, s.cfg.WebhookGuideOfferURL, s.offerPayload(booking, guide), map[string]string{
				webhook.HeaderEventType: string(model.EventGuideOffered),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Notified = append(result.Notified, guide.ID)
			case errors.Is(err, webhook.ErrDisabled):
				result.Skipped = append(result.Skipped, guide.ID)
			default:
				s.cfg.Log.Warn("Guide offer notification failed",
					"booking_id", booking.ID,
					"guide_id", guide.ID,
					"error", err,
				)
				result.Failed = append(result.Failed, guide.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(result.Notified)
	slices.Sort(result.Skipped)
	slices.Sort(result.Failed)
	return result
}

func (s *assignmentService) offerPayload(booking *model.Booking, guide *model.Guide) map[string]any {
	payload := map[string]any{
		"event":      model.EventGuideOffered,
		"booking_id": booking.ID,
		"booking":    booking,
		"guide":      guide,
	}
	if s.sealer == nil {
		return payload
	}

	token, err := s.sealer.Seal(booking.ID, guide.ID, s.cfg.ResponseTokenTTL)
	if err != nil {
		s.cfg.Log.Warn("Failed to seal response token", "booking_id", booking.ID, "guide_id", guide.ID, "error", err)
		return payload
	}
	payload["response_token"] = token
	payload["accept_url"] = s.responseURL(token, ActionAccept)
	payload["decline_url"] = s.responseURL(token, ActionDecline)
	return payload
}

func (s *assignmentService) responseURL(token string, action Action) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("action", string(action))
	return s.cfg.PublicBaseURL + "/guide-response?" + q.Encode()
}

func (s *assignmentService) Respond(ctx context.Context, bookingID, guideID int64, action Action) (*model.Booking, error) {
	var updated *model.Booking
	write := func(ctx context.Context) error {
		b, err := bookingsrepo.Mutate(ctx, s.bookings, bookingID, s.cfg.OptimisticRetries, func(b *model.Booking) error {
			return apply(b, action, guideID, s.now())
		})
		if err != nil {
			return err
		}
		if action == ActionCancel {
			if err := s.guides.IncrementCancelledTours(ctx, guideID); err != nil {
				return fmt.Errorf("count cancelled tour: %w", err)
			}
		}
		updated = b
		return nil
	}

	var err error
	if action == ActionCancel {
		err = s.bookings.ExecuteTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		if !isRuleViolation(err) {
			s.cfg.Log.Error("Failed to record guide response",
				"booking_id", bookingID,
				"guide_id", guideID,
				"action", action,
				"error", err,
			)
		}
		return nil, mapError(err, bookingID)
	}

	s.publish(ctx, action.EventType(), updated, guideID)

	s.cfg.Log.Info("Guide response recorded",
		"booking_id", bookingID,
		"guide_id", guideID,
		"action", action,
		"status", updated.Status,
	)
	return updated, nil
}

func (s *assignmentService) RespondWithToken(ctx context.Context, token string, action Action) (*model.Booking, error) {
	if s.sealer == nil {
		return nil, apperrors.Unavailable("Tokenized responses")
	}
	if action == ActionCancel {
		return nil, apperrors.InvalidInput("Cancelling requires a signed-in guide")
	}

	resp, err := s.sealer.Open(token)
	if err != nil {
		if errors.Is(err, sealer.ErrExpiredToken) {
			return nil, apperrors.Forbidden("Response link has expired")
		}
		return nil, apperrors.Forbidden("Invalid response link")
	}

	return s.Respond(ctx, resp.BookingID, resp.GuideID, action)
}

// publish reports a change downstream. Failures are logged and never undo the change.
func (s *assignmentService) publish(ctx context.Context, eventType model.EventType, booking *model.Booking, guideID int64) {
	id := guideID
	evt := events.NewEvent(eventType, booking, &id, nil)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"guide_id", guideID,
			"error", err,
		)
	}
}

func isRuleViolation(err error) bool {
	for _, target := range []error{
		assignmentserrors.ErrGuideNotOnBooking,
		assignmentserrors.ErrNotAssigned,
		assignmentserrors.ErrAnotherGuideAccepted,
		assignmentserrors.ErrGuideAlreadyAccepted,
		assignmentserrors.ErrBookingClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapError(err error, bookingID int64) error {
	switch {
	case errors.Is(err, assignmentserrors.ErrGuideNotOnBooking),
		errors.Is(err, assignmentserrors.ErrNotAssigned),
		errors.Is(err, assignmentserrors.ErrUnknownAction):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, assignmentserrors.ErrAnotherGuideAccepted),
		errors.Is(err, assignmentserrors.ErrGuideAlreadyAccepted),
		errors.Is(err, assignmentserrors.ErrBookingClosed):
		return apperrors.Conflict(err.Error())
	default:
		return bookingsservice.MapError(err, bookingID, "Failed to update guide assignment")
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
