package rest

import (
	"context"
	"errors"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/pagination"
	"github.com/bwise1/snapguide_api/util"
	"github.com/bwise1/snapguide_api/util/values"
)

func (api *API) NearbyGuidesHelper(ctx context.Context, q model.NearbyQuery) (model.CursorPage[model.GuideView], string, string, error) {
	page, err := api.Deps.Nearby.Nearby(ctx, q)
	if err != nil {
		status, message := statusOf(err, "Failed to fetch nearby guides")
		return page, status, message, err
	}
	return page, values.Success, "Nearby guides fetched successfully", nil
}

func (api *API) GuideDetailHelper(ctx context.Context, id int64) (model.GuideView, string, string, error) {
	view, err := api.Deps.Guides.Detail(ctx, id, util.ViewerFromContext(ctx))
	if err != nil {
		status, message := statusOf(err, "Failed to fetch guide")
		if status == values.NotFound {
			message = "Guide not found"
		}
		return view, status, message, err
	}
	return view, values.Success, "Guide fetched successfully", nil
}

func (api *API) GuidesByAuthorHelper(ctx context.Context, authorID int64, cursor *int64, size int) (model.CursorPage[model.GuideView], string, string, error) {
	req := pagination.Request{Cursor: cursor, Size: size}
	page, err := api.Deps.Guides.ByAuthor(ctx, authorID, req, util.ViewerFromContext(ctx))
	if err != nil {
		status, message := statusOf(err, "Failed to fetch guides")
		return page, status, message, err
	}
	return page, values.Success, "Guides fetched successfully", nil
}

func (api *API) ToggleLikeHelper(ctx context.Context, guideID int64) (model.LikeResult, string, string, error) {
	viewerID := util.ViewerFromContext(ctx)
	if viewerID == nil {
		return model.LikeResult{}, values.NotAuthorised, "not-authorized", errors.New(values.NotAuthorised)
	}

	result, err := api.Deps.Guides.ToggleLike(ctx, guideID, *viewerID)
	if err != nil {
		status, message := statusOf(err, "Failed to toggle like")
		if status == values.NotFound {
			message = "Guide not found"
		}
		return result, status, message, err
	}
	if result.Liked {
		return result, values.Success, "Guide liked", nil
	}
	return result, values.Success, "Guide unliked", nil
}
