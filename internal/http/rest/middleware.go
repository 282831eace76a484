package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/util"
	"github.com/bwise1/snapguide_api/util/tracing"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt"
	"github.com/lucsky/cuid"
)

var (
	errTokenExpired = errors.New("token expired")
	errInvalidToken = errors.New("invalid token")
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			errM := errors.New("X-Request-Source is empty")

			writeErrorResponse(w, errM, values.BadRequestBody, errM.Error())
			return
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// OptionalViewer identifies the viewer from a bearer token. Requests without
// an Authorization header continue anonymously; a bad token is rejected.
func (api *API) OptionalViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		authorization := strings.Split(header, " ")
		if len(authorization) != 2 || authorization[0] != "Bearer" {
			writeErrorResponse(w, errInvalidToken, values.NotAuthorised, "not-authorized")
			return
		}

		viewerID, err := api.verifyToken(authorization[1])
		if err != nil {
			if errors.Is(err, errTokenExpired) {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "invalid-token")
			return
		}

		next.ServeHTTP(w, r.WithContext(util.WithViewer(r.Context(), viewerID)))
	})
}

// RequireLogin admits only viewers identified by OptionalViewer who still
// exist.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID := util.ViewerFromContext(r.Context())
		if viewerID == nil {
			writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "not-authorized")
			return
		}

		dbCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := api.Deps.Store.FindUserByID(dbCtx, *viewerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeErrorResponse(w, err, values.NotAuthorised, "user-not-found")
				return
			}
			status, message := statusOf(err, "unable to verify user")
			writeErrorResponse(w, err, status, message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// verifyToken checks an HMAC signed access token and returns its subject.
func (api *API) verifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(api.Config.JwtSecret), nil
	})

	// Specifically handle token expiration
	if ve, ok := err.(*jwt.ValidationError); ok {
		if ve.Errors&jwt.ValidationErrorExpired != 0 {
			return 0, errTokenExpired
		}
	}
	if err != nil || !token.Valid {
		logging.Debug().Err(err).Msg("error verifying token")
		return 0, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	if tokenType, _ := claims["typ"].(string); tokenType != "access" {
		return 0, fmt.Errorf("%w: type %q", errInvalidToken, tokenType)
	}

	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: subject %q", errInvalidToken, sub)
		}
		return id, nil
	case float64:
		return int64(sub), nil
	default:
		return 0, fmt.Errorf("%w: missing subject", errInvalidToken)
	}
}

// rateLimited answers requests rejected by the rate limiter.
func rateLimited(w http.ResponseWriter, r *http.Request) {
	tc := tracingContext(r)
	logging.Warn().Str("request_id", tc.RequestID).Str("path", r.URL.Path).Msg("rate limit exceeded")
	resp := ServerResponse{
		Message: "too many requests, slow down",
		Status:  values.TooManyRequest,
	}
	b, _ := json.Marshal(resp)
	writeJSONResponse(w, b, util.StatusCode(values.TooManyRequest))
}
