// Package guide serves single guides: detail views, like toggling and an
// author's own listing.
package guide

import (
	"context"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/assembler"
	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/pagination"
)

type Store interface {
	FindGuideByID(ctx context.Context, id int64) (model.GuideRow, error)
	FindGuidesByAuthor(ctx context.Context, authorID int64, cursor *int64, limit int) ([]model.GuideRow, error)
}

// LikeToggler flips a like and moves the guide counter in one atomic step.
type LikeToggler interface {
	ToggleLike(ctx context.Context, guideID, viewerID int64) (model.LikeResult, error)
}

type Service struct {
	store     Store
	likes     LikeToggler
	assembler *assembler.Assembler
}

func NewService(store Store, likes LikeToggler, a *assembler.Assembler) *Service {
	return &Service{store: store, likes: likes, assembler: a}
}

// Detail returns guide id as seen by viewerID, which may be nil.
func (s *Service) Detail(ctx context.Context, id int64, viewerID *int64) (model.GuideView, error) {
	if id <= 0 {
		return model.GuideView{}, fmt.Errorf("%w: guide id must be positive", model.ErrInvalidArgument)
	}

	row, err := s.store.FindGuideByID(ctx, id)
	if err != nil {
		return model.GuideView{}, fmt.Errorf("fetching guide %d: %w", id, err)
	}
	views, err := s.assembler.Assemble(ctx, []model.GuideRow{row}, viewerID)
	if err != nil {
		return model.GuideView{}, err
	}
	return views[0], nil
}

func (s *Service) ToggleLike(ctx context.Context, guideID, viewerID int64) (model.LikeResult, error) {
	if guideID <= 0 {
		return model.LikeResult{}, fmt.Errorf("%w: guide id must be positive", model.ErrInvalidArgument)
	}

	res, err := s.likes.ToggleLike(ctx, guideID, viewerID)
	if err != nil {
		return model.LikeResult{}, fmt.Errorf("toggling like on guide %d: %w", guideID, err)
	}
	logging.Ctx(ctx).Info().
		Int64("guide_id", guideID).Int64("viewer_id", viewerID).
		Bool("liked", res.Liked).Int("like_count", res.LikeCount).
		Msg("like toggled")
	return res, nil
}

// ByAuthor lists the guides written by authorID.
func (s *Service) ByAuthor(ctx context.Context, authorID int64, req pagination.Request, viewerID *int64) (model.CursorPage[model.GuideView], error) {
	req = req.Capped()
	if err := req.Validate(); err != nil {
		return model.CursorPage[model.GuideView]{}, err
	}

	rows, err := s.store.FindGuidesByAuthor(ctx, authorID, req.Cursor, req.Limit())
	if err != nil {
		return model.CursorPage[model.GuideView]{}, fmt.Errorf("fetching guides of author %d: %w", authorID, err)
	}
	return s.assembler.Page(ctx, rows, req, viewerID)
}
