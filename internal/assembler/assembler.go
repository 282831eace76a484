// Package assembler turns guide rows into viewer facing pages. Media and like
// state for a whole page are fetched with one query each, never per guide.
package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/metrics"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/pagination"
	"golang.org/x/sync/errgroup"
)

// GuideStore returns joined guide rows ordered by ascending id, with ids above
// cursor (when set), at most limit rows.
type GuideStore interface {
	FindGuidesByLocationIDs(ctx context.Context, locationIDs []int64, cursor *int64, limit int) ([]model.GuideRow, error)
	FindGuidesNear(ctx context.Context, center model.Coordinate, radiusKm float64, cursor *int64, limit int) ([]model.GuideRow, error)
}

type MediaStore interface {
	FindMediaByGuideIDs(ctx context.Context, guideIDs []int64) ([]model.Media, error)
}

// LikeStore returns the subset of guideIDs viewerID has liked. A missing
// viewer is reported with model.ErrNotFound.
type LikeStore interface {
	FindLikedGuideIDs(ctx context.Context, viewerID int64, guideIDs []int64) ([]int64, error)
}

type Assembler struct {
	guides GuideStore
	media  MediaStore
	likes  LikeStore
}

func New(guides GuideStore, media MediaStore, likes LikeStore) *Assembler {
	return &Assembler{guides: guides, media: media, likes: likes}
}

// ByLocationIDs is the second stage of the two-stage search: guides anchored
// to any of locationIDs.
func (a *Assembler) ByLocationIDs(ctx context.Context, locationIDs []int64, req pagination.Request, viewerID *int64) (model.CursorPage[model.GuideView], error) {
	if err := req.Validate(); err != nil {
		return model.CursorPage[model.GuideView]{}, err
	}
	if len(locationIDs) == 0 {
		return pagination.NewPage([]model.GuideView{}, false, req, viewID), nil
	}

	rows, err := a.guides.FindGuidesByLocationIDs(ctx, locationIDs, req.Cursor, req.Limit())
	if err != nil {
		metrics.StoreErrors.WithLabelValues("guides_by_location").Inc()
		return model.CursorPage[model.GuideView]{}, fmt.Errorf("fetching guides by location: %w", err)
	}
	return a.page(ctx, rows, req, viewerID)
}

// Near is the single-stage search: the store applies the spatial filter and
// the cursor in one query.
func (a *Assembler) Near(ctx context.Context, center model.Coordinate, radiusKm float64, req pagination.Request, viewerID *int64) (model.CursorPage[model.GuideView], error) {
	if err := req.Validate(); err != nil {
		return model.CursorPage[model.GuideView]{}, err
	}

	rows, err := a.guides.FindGuidesNear(ctx, center, radiusKm, req.Cursor, req.Limit())
	if err != nil {
		metrics.StoreErrors.WithLabelValues("guides_near").Inc()
		return model.CursorPage[model.GuideView]{}, fmt.Errorf("fetching nearby guides: %w", err)
	}
	return a.page(ctx, rows, req, viewerID)
}

// Page assembles an already fetched, over-fetched slice of rows.
func (a *Assembler) Page(ctx context.Context, rows []model.GuideRow, req pagination.Request, viewerID *int64) (model.CursorPage[model.GuideView], error) {
	return a.page(ctx, rows, req, viewerID)
}

func (a *Assembler) page(ctx context.Context, rows []model.GuideRow, req pagination.Request, viewerID *int64) (model.CursorPage[model.GuideView], error) {
	kept, hasNext := pagination.Trim(rows, req.Size)
	views, err := a.Assemble(ctx, kept, viewerID)
	if err != nil {
		return model.CursorPage[model.GuideView]{}, err
	}
	return pagination.NewPage(views, hasNext, req, viewID), nil
}

// Assemble attaches media and like state to rows, keeping their order.
func (a *Assembler) Assemble(ctx context.Context, rows []model.GuideRow, viewerID *int64) ([]model.GuideView, error) {
	if len(rows) == 0 {
		return []model.GuideView{}, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	var (
		mediaByGuide map[int64][]model.MediaView
		liked        map[int64]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mediaByGuide, err = a.mediaFor(gctx, ids)
		return err
	})
	if viewerID != nil {
		g.Go(func() error {
			var err error
			liked, err = a.likedBy(gctx, *viewerID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]model.GuideView, len(rows))
	for i, r := range rows {
		media := mediaByGuide[r.ID]
		if media == nil {
			media = []model.MediaView{}
		}
		_, hasLiked := liked[r.ID]

		views[i] = model.GuideView{
			ID:           r.ID,
			Tip:          r.Tip,
			Author:       r.Author,
			LocationName: r.LocationName,
			Media:        media,
			LikeCount:    r.LikeCount,
			UserHasLiked: hasLiked,
		}
	}
	return views, nil
}

// mediaFor groups the media of ids by guide. Media pointing at a guide outside
// ids are logged and dropped.
func (a *Assembler) mediaFor(ctx context.Context, ids []int64) (map[int64][]model.MediaView, error) {
	media, err := a.media.FindMediaByGuideIDs(ctx, ids)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("media_by_guides").Inc()
		return nil, fmt.Errorf("fetching media: %w", err)
	}

	grouped := make(map[int64][]model.MediaView, len(ids))
	for _, id := range ids {
		grouped[id] = nil
	}
	for _, m := range media {
		if m.GuideID == nil {
			orphan(ctx, m)
			continue
		}
		list, ok := grouped[*m.GuideID]
		if !ok {
			orphan(ctx, m)
			continue
		}
		grouped[*m.GuideID] = append(list, model.MediaView{FileName: m.FileName, URL: m.URL})
	}
	return grouped, nil
}

func orphan(ctx context.Context, m model.Media) {
	metrics.DataAnomalies.Inc()
	ev := logging.Ctx(ctx).Warn().Err(model.ErrDataIntegrity).Int64("media_id", m.ID)
	if m.GuideID != nil {
		ev = ev.Int64("guide_id", *m.GuideID)
	}
	ev.Msg("dropping media not attached to a guide on this page")
}

// likedBy returns the liked subset of ids. An unknown viewer likes nothing.
func (a *Assembler) likedBy(ctx context.Context, viewerID int64, ids []int64) (map[int64]struct{}, error) {
	likedIDs, err := a.likes.FindLikedGuideIDs(ctx, viewerID, ids)
	if errors.Is(err, model.ErrNotFound) {
		logging.Ctx(ctx).Info().Int64("viewer_id", viewerID).Msg("viewer not found, treating as anonymous")
		return nil, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("liked_guides").Inc()
		return nil, fmt.Errorf("fetching likes: %w", err)
	}

	liked := make(map[int64]struct{}, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = struct{}{}
	}
	return liked, nil
}

func viewID(v model.GuideView) int64 {
	return v.ID
}
