package finder

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/bwise1/snapguide_api/internal/geo"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/repository/memory"
)

var seoul = model.Coordinate{Lat: 37.5665, Lng: 126.9780}

func seoulStore() *memory.Store {
	s := memory.New()
	s.AddLocation(model.Location{ID: 1, Coordinate: model.Coordinate{Lat: 37.60, Lng: 126.98}})
	s.AddLocation(model.Location{ID: 2, Coordinate: model.Coordinate{Lat: 37.60, Lng: 127.03}})
	s.AddLocation(model.Location{ID: 3, Coordinate: model.Coordinate{Lat: 37.60, Lng: 127.05}})
	s.AddLocation(model.Location{ID: 4, Coordinate: seoul})
	return s
}

func TestStrategiesOnSeoulDataset(t *testing.T) {
	f := New(seoulStore())
	ctx := context.Background()

	testCases := []struct {
		strategy Strategy
		want     []int64
	}{
		{StrategyExact, []int64{4}},
		// 2 sits in the box corner, about 5.9 km away.
		{StrategySquare, []int64{1, 2, 4}},
		{StrategyRadius, []int64{1, 4}},
		{StrategyNearby, []int64{1, 4}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			locs, err := f.Search(ctx, tc.strategy, seoul, 5)
			if err != nil {
				t.Fatalf("Search(%s): %v", tc.strategy, err)
			}
			if got := IDs(locs); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Search(%s) = %v; want %v", tc.strategy, got, tc.want)
			}
		})
	}
}

func TestStrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		center := model.Coordinate{Lat: r.Float64()*160 - 80, Lng: r.Float64()*360 - 180}
		radius := 1 + r.Float64()*300

		s := memory.New()
		spread := radius / geo.KmPerDegree * 3
		for i := 0; i < 200; i++ {
			c := model.Coordinate{
				Lat: clamp(center.Lat+(r.Float64()*2-1)*spread, -90, 90),
				Lng: wrap(center.Lng + (r.Float64()*2-1)*spread/math.Max(0.05, math.Cos(center.Lat*math.Pi/180))),
			}
			// Points within a hair of the circle are left out so the
			// comparison does not depend on the last float bit.
			if math.Abs(geo.Distance(center, c)-radius) < 1e-6 {
				continue
			}
			s.AddLocation(model.Location{Coordinate: c})
		}

		if geo.CheckCenter(center.Lat, center.Lng, radius) != nil {
			continue
		}
		f := New(s)

		byRadius, err := f.Radius(ctx, center, radius)
		if err != nil {
			t.Fatalf("Radius: %v", err)
		}
		byNearby, err := f.Nearby(ctx, center, radius)
		if err != nil {
			t.Fatalf("Nearby: %v", err)
		}
		bySquare, err := f.Square(ctx, center, radius)
		if err != nil {
			t.Fatalf("Square: %v", err)
		}
		radiusIDs, nearbyIDs, squareIDs := IDs(byRadius), IDs(byNearby), IDs(bySquare)

		if !reflect.DeepEqual(radiusIDs, nearbyIDs) {
			t.Fatalf("round %d: radius %v != nearby %v (center %+v r=%v)", round, radiusIDs, nearbyIDs, center, radius)
		}
		square := make(map[int64]bool, len(squareIDs))
		for _, id := range squareIDs {
			square[id] = true
		}
		for _, id := range radiusIDs {
			if !square[id] {
				t.Fatalf("round %d: location %d within radius but outside box", round, id)
			}
		}
	}
}

type nativeStore struct {
	*memory.Store
	nearbyCalls int
}

func (n *nativeStore) FindNearby(ctx context.Context, center model.Coordinate, radiusKm float64) ([]model.Location, error) {
	n.nearbyCalls++
	return n.Store.FindWithinRadius(ctx, center, radiusKm)
}

func TestNearbyDelegatesToNativeStore(t *testing.T) {
	store := &nativeStore{Store: seoulStore()}
	f := New(store)

	locs, err := f.Nearby(context.Background(), seoul, 5)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if got := IDs(locs); !reflect.DeepEqual(got, []int64{1, 4}) {
		t.Errorf("Nearby = %v; want [1 4]", got)
	}
	if store.nearbyCalls != 1 {
		t.Errorf("native FindNearby called %d times; want 1", store.nearbyCalls)
	}
	if n := store.Calls(memory.OpFindInBox); n != 0 {
		t.Errorf("box prefilter ran %d times alongside the native search", n)
	}
}

func TestNearbyUsesBoxPrefilter(t *testing.T) {
	s := seoulStore()
	f := New(s)

	if _, err := f.Nearby(context.Background(), seoul, 5); err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if s.Calls(memory.OpFindInBox) != 1 || s.Calls(memory.OpFindWithinRadius) != 0 {
		t.Errorf("box calls = %d, radius calls = %d; want 1 and 0",
			s.Calls(memory.OpFindInBox), s.Calls(memory.OpFindWithinRadius))
	}
}

func TestExactEpsilon(t *testing.T) {
	s := memory.New()
	s.AddLocation(model.Location{ID: 1, Coordinate: model.Coordinate{Lat: 10, Lng: 20}})
	f := New(s)

	testCases := []struct {
		name  string
		probe model.Coordinate
		want  int
	}{
		{"same", model.Coordinate{Lat: 10, Lng: 20}, 1},
		{"within epsilon", model.Coordinate{Lat: 10 + 5e-7, Lng: 20 - 5e-7}, 1},
		{"outside epsilon", model.Coordinate{Lat: 10 + 5e-6, Lng: 20}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			locs, err := f.Exact(context.Background(), tc.probe)
			if err != nil {
				t.Fatalf("Exact: %v", err)
			}
			if len(locs) != tc.want {
				t.Errorf("Exact(%+v) returned %d locations; want %d", tc.probe, len(locs), tc.want)
			}
		})
	}
}

func TestInvalidArgumentsRejectedBeforeQuery(t *testing.T) {
	testCases := []struct {
		name     string
		strategy Strategy
		center   model.Coordinate
		radius   float64
	}{
		{"zero radius", StrategyNearby, seoul, 0},
		{"negative radius", StrategySquare, seoul, -3},
		{"latitude out of range", StrategyRadius, model.Coordinate{Lat: 95, Lng: 0}, 1},
		{"longitude out of range", StrategyExact, model.Coordinate{Lat: 0, Lng: 200}, 1},
		{"polar center", StrategyNearby, model.Coordinate{Lat: 89, Lng: 0}, 1},
		{"unknown strategy", Strategy("spiral"), seoul, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := seoulStore()
			_, err := New(s).Search(context.Background(), tc.strategy, tc.center, tc.radius)
			if !errors.Is(err, model.ErrInvalidArgument) {
				t.Fatalf("err = %v; want ErrInvalidArgument", err)
			}
			for _, op := range []string{memory.OpFindByCoordinate, memory.OpFindInBox, memory.OpFindWithinRadius} {
				if n := s.Calls(op); n != 0 {
					t.Errorf("%s called %d times", op, n)
				}
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	testCases := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyNearby, false},
		{"Square", StrategySquare, false},
		{" radius ", StrategyRadius, false},
		{"exact", StrategyExact, false},
		{"hexagon", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStrategy(tc.in)
			if (err != nil) != tc.wantErr || got != tc.want {
				t.Errorf("ParseStrategy(%q) = %q, %v; want %q, err=%v", tc.in, got, err, tc.want, tc.wantErr)
			}
		})
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	s := seoulStore()
	s.FailWith(memory.OpFindInBox, boom)

	_, err := New(s).Nearby(context.Background(), seoul, 5)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v; want %v", err, boom)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func wrap(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
