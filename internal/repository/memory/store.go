// Package memory is an in-process store holding every table as an id keyed
// arena. Rows point at each other only through id fields. Spatial queries run
// the Go Haversine over the rows, so it also serves as the store of last resort
// when no database is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bwise1/snapguide_api/internal/geo"
	"github.com/bwise1/snapguide_api/internal/model"
)

// Operation names reported by Calls.
const (
	OpFindByCoordinate = "FindByCoordinate"
	OpFindInBox        = "FindInBox"
	OpFindWithinRadius = "FindWithinRadius"
	OpCreateLocation   = "CreateLocation"
	OpGuidesByLocation = "FindGuidesByLocationIDs"
	OpGuidesNear       = "FindGuidesNear"
	OpGuideByID        = "FindGuideByID"
	OpGuidesByAuthor   = "FindGuidesByAuthor"
	OpMediaByGuides    = "FindMediaByGuideIDs"
	OpLikedGuides      = "FindLikedGuideIDs"
	OpToggleLike       = "ToggleLike"
	OpUserByID         = "FindUserByID"
)

type likeKey struct {
	viewer int64
	guide  int64
}

type Store struct {
	mu sync.RWMutex

	users     map[int64]model.User
	locations map[int64]model.Location
	guides    map[int64]model.Guide
	media     map[int64]model.Media
	likes     map[likeKey]struct{}
	nextID    int64

	calls  map[string]int
	errors map[string]error
}

func New() *Store {
	return &Store{
		users:     make(map[int64]model.User),
		locations: make(map[int64]model.Location),
		guides:    make(map[int64]model.Guide),
		media:     make(map[int64]model.Media),
		likes:     make(map[likeKey]struct{}),
		calls:     make(map[string]int),
		errors:    make(map[string]error),
	}
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// FailWith makes every later call to op return err. A nil err clears it.
func (s *Store) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errors, op)
		return
	}
	s.errors[op] = err
}

// enter records a call and returns the injected error, if any. Callers must
// hold mu.
func (s *Store) enter(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.errors[op]
}

func (s *Store) id(requested int64) int64 {
	if requested > s.nextID {
		s.nextID = requested
		return requested
	}
	if requested > 0 {
		return requested
	}
	s.nextID++
	return s.nextID
}

// AddUser stores u, assigning an id when u.ID is zero.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id(u.ID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) AddLocation(l model.Location) model.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocation(l)
}

func (s *Store) addLocation(l model.Location) model.Location {
	l.ID = s.id(l.ID)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	s.locations[l.ID] = l
	return l
}

func (s *Store) AddGuide(g model.Guide) model.Guide {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id(g.ID)
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	s.guides[g.ID] = g
	return g
}

func (s *Store) AddMedia(m model.Media) model.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id(m.ID)
	s.media[m.ID] = m
	return m
}

// AddLike records a like without touching the guide counter.
func (s *Store) AddLike(viewerID, guideID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[likeKey{viewer: viewerID, guide: guideID}] = struct{}{}
}

func (s *Store) FindByCoordinate(ctx context.Context, c model.Coordinate, epsilon float64) ([]model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindByCoordinate); err != nil {
		return nil, err
	}

	var out []model.Location
	for _, l := range s.locations {
		if math.Abs(l.Coordinate.Lat-c.Lat) <= epsilon && math.Abs(l.Coordinate.Lng-c.Lng) <= epsilon {
			out = append(out, l)
		}
	}
	return sortLocations(out), nil
}

func (s *Store) FindInBox(ctx context.Context, box geo.Box) ([]model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindInBox); err != nil {
		return nil, err
	}

	var out []model.Location
	for _, l := range s.locations {
		if box.Contains(l.Coordinate) {
			out = append(out, l)
		}
	}
	return sortLocations(out), nil
}

func (s *Store) FindWithinRadius(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpFindWithinRadius); err != nil {
		return nil, err
	}

	var out []model.Location
	for _, l := range s.locations {
		if geo.Distance(center, l.Coordinate) <= radiusKm {
			out = append(out, l)
		}
	}
	return sortLocations(out), nil
}

func (s *Store) CreateLocation(ctx context.Context, l model.Location) (model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpCreateLocation); err != nil {
		return model.Location{}, err
	}
	l.ID = 0
	return s.addLocation(l), nil
}

func (s *Store) FindGuidesByLocationIDs(ctx context.Context, locationIDs []int64, cursor *int64, limit int) ([]model.GuideRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpGuidesByLocation); err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		wanted[id] = struct{}{}
	}
	return s.selectGuides(cursor, limit, func(g model.Guide) bool {
		if g.LocationID == nil {
			return false
		}
		_, ok := wanted[*g.LocationID]
		return ok
	}), nil
}

func (s *Store) FindGuidesNear(ctx context.Context, center model.Coordinate, radiusKm float64, cursor *int64, limit int) ([]model.GuideRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpGuidesNear); err != nil {
		return nil, err
	}

	box := geo.BoundingBox(center.Lat, center.Lng, radiusKm)
	return s.selectGuides(cursor, limit, func(g model.Guide) bool {
		if g.LocationID == nil {
			return false
		}
		l, ok := s.locations[*g.LocationID]
		return ok && box.Contains(l.Coordinate) && geo.Distance(center, l.Coordinate) <= radiusKm
	}), nil
}

func (s *Store) FindGuideByID(ctx context.Context, id int64) (model.GuideRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpGuideByID); err != nil {
		return model.GuideRow{}, err
	}

	g, ok := s.guides[id]
	if !ok {
		return model.GuideRow{}, fmt.Errorf("guide %d: %w", id, model.ErrNotFound)
	}
	row, ok := s.row(g)
	if !ok {
		return model.GuideRow{}, fmt.Errorf("guide %d author: %w", id, model.ErrNotFound)
	}
	return row, nil
}

func (s *Store) FindGuidesByAuthor(ctx context.Context, authorID int64, cursor *int64, limit int) ([]model.GuideRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpGuidesByAuthor); err != nil {
		return nil, err
	}
	return s.selectGuides(cursor, limit, func(g model.Guide) bool { return g.AuthorID == authorID }), nil
}

// selectGuides returns up to limit joined rows matching keep with id above
// cursor, ascending. Callers must hold mu.
func (s *Store) selectGuides(cursor *int64, limit int, keep func(model.Guide) bool) []model.GuideRow {
	ids := make([]int64, 0, len(s.guides))
	for id, g := range s.guides {
		if cursor != nil && id <= *cursor {
			continue
		}
		if keep(g) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.GuideRow, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if row, ok := s.row(s.guides[id]); ok {
			out = append(out, row)
		}
	}
	return out
}

// row joins g with its author and location. Guides whose author is missing
// are not returned, as with an inner join.
func (s *Store) row(g model.Guide) (model.GuideRow, bool) {
	u, ok := s.users[g.AuthorID]
	if !ok {
		return model.GuideRow{}, false
	}
	row := model.GuideRow{Guide: g, Author: u.Author()}
	if g.LocationID != nil {
		if l, ok := s.locations[*g.LocationID]; ok {
			row.LocationName = l.DisplayName()
		}
	}
	return row, true
}

func (s *Store) FindMediaByGuideIDs(ctx context.Context, guideIDs []int64) ([]model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpMediaByGuides); err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(guideIDs))
	for _, id := range guideIDs {
		wanted[id] = struct{}{}
	}

	var out []model.Media
	for _, m := range s.media {
		if m.GuideID == nil {
			continue
		}
		if _, ok := wanted[*m.GuideID]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindLikedGuideIDs returns which of guideIDs viewerID has liked. It fails
// with model.ErrNotFound when the viewer does not exist.
func (s *Store) FindLikedGuideIDs(ctx context.Context, viewerID int64, guideIDs []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpLikedGuides); err != nil {
		return nil, err
	}
	if _, ok := s.users[viewerID]; !ok {
		return nil, fmt.Errorf("viewer %d: %w", viewerID, model.ErrNotFound)
	}

	var out []int64
	for _, id := range guideIDs {
		if _, ok := s.likes[likeKey{viewer: viewerID, guide: id}]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// ToggleLike flips the like of viewerID on guideID and adjusts the counter,
// never letting it drop below zero.
func (s *Store) ToggleLike(ctx context.Context, guideID, viewerID int64) (model.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpToggleLike); err != nil {
		return model.LikeResult{}, err
	}

	g, ok := s.guides[guideID]
	if !ok {
		return model.LikeResult{}, fmt.Errorf("guide %d: %w", guideID, model.ErrNotFound)
	}
	if _, ok := s.users[viewerID]; !ok {
		return model.LikeResult{}, fmt.Errorf("viewer %d: %w", viewerID, model.ErrNotFound)
	}

	key := likeKey{viewer: viewerID, guide: guideID}
	_, liked := s.likes[key]
	if liked {
		delete(s.likes, key)
		if g.LikeCount > 0 {
			g.LikeCount--
		}
	} else {
		s.likes[key] = struct{}{}
		g.LikeCount++
	}
	s.guides[guideID] = g

	return model.LikeResult{GuideID: guideID, Liked: !liked, LikeCount: g.LikeCount}, nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, OpUserByID); err != nil {
		return model.User{}, err
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return u, nil
}

func sortLocations(locs []model.Location) []model.Location {
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })
	return locs
}
