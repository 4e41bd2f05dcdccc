// Package testutil holds in-memory stores, recording fakes and an HTTP client
// shared by package tests.
package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "beroepsbelg/internal/bookings/errors"
	bookingsrepo "beroepsbelg/internal/bookings/repository"
	guideserrors "beroepsbelg/internal/guides/errors"
	guidesrepo "beroepsbelg/internal/guides/repository"
	mongotx "beroepsbelg/pkg/db/mongo"
	"beroepsbelg/pkg/model"
)

// BookingStore is an in-memory BookingRepository with the same version and
// completion checks as the Mongo repository.
type BookingStore struct {
	mu       sync.Mutex
	bookings map[int64]model.Booking
	nextID   int64
	// Updates counts successful writes.
	Updates int
}

var _ bookingsrepo.BookingRepository = (*BookingStore)(nil)

func NewBookingStore(bookings ...model.Booking) *BookingStore {
	s := &BookingStore{bookings: make(map[int64]model.Booking)}
	for _, b := range bookings {
		if b.Version == 0 {
			b.Version = 1
		}
		s.bookings[b.ID] = cloneBooking(b)
		s.nextID = max(s.nextID, b.ID)
	}
	return s
}

func (s *BookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC().Truncate(time.Millisecond)
	b.ID = s.nextID
	b.Version = 1
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (s *BookingStore) FindByID(_ context.Context, id int64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := cloneBooking(b)
	out.Normalize()
	return &out, nil
}

func (s *BookingStore) FindAll(_ context.Context, f bookingsrepo.Filter, limit int, offset int64) ([]*model.Booking, error) {
	matched := s.match(f)
	if offset >= int64(len(matched)) {
		return []*model.Booking{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *BookingStore) Count(_ context.Context, f bookingsrepo.Filter) (int64, error) {
	return int64(len(s.match(f))), nil
}

func (s *BookingStore) match(f bookingsrepo.Filter) []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*model.Booking{}
	for _, b := range s.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.GuideID != nil && !b.IsAssigned(*f.GuideID) && !slices.Contains(b.GuideIDs, *f.GuideID) {
			continue
		}
		if f.From != nil && b.TourDatetime.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.TourDatetime.Before(*f.To) {
			continue
		}
		copied := cloneBooking(b)
		copied.Normalize()
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *BookingStore) Update(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[b.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if stored.Version != b.Version {
		return bookingserrors.ErrVersionConflict
	}
	b.Version++
	b.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	updated := cloneBooking(*b)
	updated.PicturesUploaded = stored.PicturesUploaded
	s.bookings[b.ID] = updated
	s.Updates++
	return nil
}

func (s *BookingStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *BookingStore) IncrementPictures(_ context.Context, id int64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status == model.BookingCompleted {
		return nil, bookingserrors.ErrCompleted
	}
	b.PicturesUploaded++
	b.Version++
	s.bookings[id] = b

	out := cloneBooking(b)
	out.Normalize()
	return &out, nil
}

func (s *BookingStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// Get returns a copy of the stored booking, or nil.
func (s *BookingStore) Get(id int64) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil
	}
	out := cloneBooking(b)
	return &out
}

func cloneBooking(b model.Booking) model.Booking {
	b.SelectedGuides = slices.Clone(b.SelectedGuides)
	b.GuideIDs = slices.Clone(b.GuideIDs)
	b.Invitees = slices.Clone(b.Invitees)
	if b.GuideID != nil {
		id := *b.GuideID
		b.GuideID = &id
	}
	return b
}

// GuideStore is an in-memory GuideRepository.
type GuideStore struct {
	mu     sync.Mutex
	guides map[int64]model.Guide
	nextID int64
}

var _ guidesrepo.GuideRepository = (*GuideStore)(nil)

func NewGuideStore(guides ...model.Guide) *GuideStore {
	s := &GuideStore{guides: make(map[int64]model.Guide)}
	for _, g := range guides {
		s.guides[g.ID] = g
		s.nextID = max(s.nextID, g.ID)
	}
	return s
}

func (s *GuideStore) Create(_ context.Context, g *model.Guide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.guides {
		if existing.Email == g.Email {
			return guideserrors.ErrDuplicateEmail
		}
	}
	s.nextID++
	g.ID = s.nextID
	g.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	s.guides[g.ID] = *g
	return nil
}

func (s *GuideStore) FindByID(_ context.Context, id int64) (*model.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guides[id]
	if !ok {
		return nil, guideserrors.ErrNotFound
	}
	return &g, nil
}

func (s *GuideStore) FindByIDs(_ context.Context, ids []int64) ([]*model.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Guide
	for _, id := range ids {
		if g, ok := s.guides[id]; ok {
			out = append(out, &g)
		}
	}
	return out, nil
}

func (s *GuideStore) FindAll(_ context.Context, limit int, offset int64) ([]*model.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*model.Guide{}
	for _, g := range s.guides {
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= int64(len(out)) {
		return []*model.Guide{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *GuideStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.guides)), nil
}

func (s *GuideStore) Update(_ context.Context, id int64, g *model.Guide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.guides[id]
	if !ok {
		return guideserrors.ErrNotFound
	}
	existing.Name, existing.Email, existing.Phone, existing.Languages = g.Name, g.Email, g.Phone, g.Languages
	s.guides[id] = existing
	return nil
}

func (s *GuideStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.guides[id]; !ok {
		return guideserrors.ErrNotFound
	}
	delete(s.guides, id)
	return nil
}

func (s *GuideStore) IncrementCancelledTours(_ context.Context, id int64) error {
	return s.bump(id, func(g *model.Guide) { g.CancelledTours++ })
}

func (s *GuideStore) IncrementPhotos(_ context.Context, id int64) error {
	return s.bump(id, func(g *model.Guide) { g.PhotosUploaded++ })
}

func (s *GuideStore) IncrementCompletedTours(_ context.Context, id int64) error {
	return s.bump(id, func(g *model.Guide) { g.ToursCompleted++ })
}

func (s *GuideStore) bump(id int64, fn func(*model.Guide)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guides[id]
	if !ok {
		return guideserrors.ErrNotFound
	}
	fn(&g)
	s.guides[id] = g
	return nil
}

// Get returns a copy of the stored guide, or nil.
func (s *GuideStore) Get(id int64) *model.Guide {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guides[id]
	if !ok {
		return nil
	}
	return &g
}
