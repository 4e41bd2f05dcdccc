package service

import (
	"context"
	"errors"
	"sync"

	guideserrors "beroepsbelg/internal/guides/errors"
	"beroepsbelg/internal/guides/repository"
	"beroepsbelg/internal/guides/validator"
	"beroepsbelg/pkg/config"
	apperrors "beroepsbelg/pkg/errors"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/sanitizer"
)

type GuideService interface {
	Create(ctx context.Context, guide *model.Guide) error
	GetByID(ctx context.Context, id int64) (*model.Guide, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Guide, int64, error)
	Update(ctx context.Context, id int64, updates *model.GuideUpdate) error
	Delete(ctx context.Context, id int64) error
}

type guideService struct {
	repo      repository.GuideRepository
	validator *validator.GuideValidator
	cfg       *config.Config
}

func NewGuideService(repo repository.GuideRepository, validator *validator.GuideValidator, cfg *config.Config) GuideService {
	return &guideService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *guideService) Create(ctx context.Context, guide *model.Guide) error {
	guide.CancelledTours, guide.PhotosUploaded, guide.ToursCompleted = 0, 0, 0
	s.sanitize(guide)
	if err := s.validator.Validate(guide); err != nil {
		s.cfg.Log.Warn("Guide validation failed", "error", err)
		return apperrors.Validation("Guide validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, guide); err != nil {
		if errors.Is(err, guideserrors.ErrDuplicateEmail) {
			return apperrors.Conflict("A guide with this email already exists")
		}
		s.cfg.Log.Error("Failed to create guide", "error", err)
		return apperrors.Internal("Failed to create guide", err)
	}

	s.cfg.Log.Info("Guide created successfully", "id", guide.ID, "email", guide.Email)
	return nil
}

func (s *guideService) GetByID(ctx context.Context, id int64) (*model.Guide, error) {
	guide, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve guide")
	}
	return guide, nil
}

func (s *guideService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Guide, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var guides []*model.Guide
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count guides", "error", errCount)
			errCount = apperrors.Internal("Failed to count guides", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		guides, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list guides", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve guides", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return guides, count, nil
}

func (s *guideService) Update(ctx context.Context, id int64, updates *model.GuideUpdate) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, id, "Failed to check guide existence")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Guide update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := mergeGuideUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Guide validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, guideserrors.ErrDuplicateEmail) {
			return apperrors.Conflict("A guide with this email already exists")
		}
		return mapRepoError(err, id, "Failed to update guide")
	}

	s.cfg.Log.Info("Guide updated successfully", "id", id)
	return nil
}

func (s *guideService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id, "Failed to delete guide")
	}
	s.cfg.Log.Info("Guide deleted successfully", "id", id)
	return nil
}

func (s *guideService) sanitize(g *model.Guide) {
	g.Name = sanitizer.NormalizeName(g.Name)
	g.Email = sanitizer.NormalizeEmail(g.Email)
	if g.Phone != "" {
		if normalized := sanitizer.NormalizePhone(g.Phone); normalized != "" {
			g.Phone = normalized
		}
	}
	g.Languages = sanitizer.NormalizeLanguages(g.Languages)
}

func mergeGuideUpdates(existing *model.Guide, updates *model.GuideUpdate) *model.Guide {
	merged := *existing
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Languages != nil {
		merged.Languages = *updates.Languages
	}
	return &merged
}

func mapRepoError(err error, id int64, message string) error {
	if errors.Is(err, guideserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Guide", id)
	}
	return apperrors.Internal(message, err)
}
