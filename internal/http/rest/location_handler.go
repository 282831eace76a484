package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwise1/snapguide_api/internal/finder"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/util"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) LocationRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/search", Handler(api.SearchLocations))
	mux.Method(http.MethodPost, "/resolve", Handler(api.ResolveLocation))

	return mux
}

// SearchLocations serves GET /locations/search?strategy&lat&lng&radius.
func (api *API) SearchLocations(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)
	params := r.URL.Query()

	strategy, err := finder.ParseStrategy(params.Get("strategy"))
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}
	lat, err := util.QueryRequiredFloat(params, "lat")
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}
	lng, err := util.QueryRequiredFloat(params, "lng")
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}
	radius, err := util.QueryFloat(params, "radius", model.DefaultRadiusKm)
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}

	locs, err := api.Deps.Nearby.Locations(r.Context(), strategy, model.Coordinate{Lat: lat, Lng: lng}, radius)
	if err != nil {
		status, message := statusOf(err, "Failed to search locations")
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(locs, fmt.Sprintf("%d locations found", len(locs)), values.Success)
}

func (api *API) ResolveLocation(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	var req model.ResolveLocationRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}

	loc, status, message, err := api.ResolveLocationHelper(r.Context(), model.Coordinate{Lat: req.Latitude, Lng: req.Longitude})
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	return respondWithData(loc, message, status)
}

func (api *API) ResolveLocationHelper(ctx context.Context, c model.Coordinate) (model.Location, string, string, error) {
	loc, created, err := api.Deps.Resolver.Resolve(ctx, c)
	if err != nil {
		status, message := statusOf(err, "Failed to resolve location")
		return loc, status, message, err
	}
	if created {
		return loc, values.Created, "Location created", nil
	}
	return loc, values.Success, "Location found", nil
}
