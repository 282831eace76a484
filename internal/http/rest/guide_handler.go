package rest

import (
	"net/http"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/util"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func (api *API) GuideRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		if api.Config.RateLimitRequests > 0 {
			r.Use(httprate.Limit(
				api.Config.RateLimitRequests,
				api.Config.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(rateLimited),
			))
		}
		r.Method(http.MethodGet, "/nearby", Handler(api.GetNearbyGuides))
	})

	mux.Method(http.MethodGet, "/{guideID}", Handler(api.GetGuide))
	mux.Method(http.MethodGet, "/authors/{authorID}", Handler(api.GetGuidesByAuthor))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/{guideID}/like", Handler(api.ToggleLike))
	})

	return mux
}

// GetNearbyGuides serves GET /guides/nearby?lat&lng&radius&cursor&size.
func (api *API) GetNearbyGuides(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	q, err := nearbyQuery(r)
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}

	page, status, message, err := api.NearbyGuidesHelper(r.Context(), q)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(page, message, status)
}

func nearbyQuery(r *http.Request) (model.NearbyQuery, error) {
	params := r.URL.Query()
	q := model.NearbyQuery{ViewerID: util.ViewerFromContext(r.Context())}

	var err error
	if q.Lat, err = util.QueryRequiredFloat(params, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = util.QueryRequiredFloat(params, "lng"); err != nil {
		return q, err
	}
	if q.RadiusKm, err = util.QueryFloat(params, "radius", model.DefaultRadiusKm); err != nil {
		return q, err
	}
	if q.PageSize, err = util.QueryInt(params, "size", model.DefaultPageSize); err != nil {
		return q, err
	}
	if q.Cursor, err = util.QueryInt64Ptr(params, "cursor"); err != nil {
		return q, err
	}
	return q, nil
}

func (api *API) GetGuide(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	id, err := util.ParseID(chi.URLParam(r, "guideID"))
	if err != nil {
		return respondWithError(err, "invalid guide id", values.BadRequestBody, &tc)
	}

	view, status, message, err := api.GuideDetailHelper(r.Context(), id)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(view, message, status)
}

func (api *API) GetGuidesByAuthor(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	authorID, err := util.ParseID(chi.URLParam(r, "authorID"))
	if err != nil {
		return respondWithError(err, "invalid author id", values.BadRequestBody, &tc)
	}
	params := r.URL.Query()
	size, err := util.QueryInt(params, "size", model.DefaultPageSize)
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}
	cursor, err := util.QueryInt64Ptr(params, "cursor")
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}

	page, status, message, err := api.GuidesByAuthorHelper(r.Context(), authorID, cursor, size)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(page, message, status)
}

func (api *API) ToggleLike(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	id, err := util.ParseID(chi.URLParam(r, "guideID"))
	if err != nil {
		return respondWithError(err, "invalid guide id", values.BadRequestBody, &tc)
	}

	result, status, message, err := api.ToggleLikeHelper(r.Context(), id)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(result, message, status)
}
