package finder

import (
	"context"
	"errors"
	"testing"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/repository/memory"
)

type stubGeocoder struct {
	addr  *model.Address
	err   error
	calls int
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (*model.Address, error) {
	g.calls++
	return g.addr, g.err
}

func TestResolveReusesExistingLocation(t *testing.T) {
	s := seoulStore()
	geocoder := &stubGeocoder{}
	r := NewResolver(New(s), s, geocoder)

	loc, created, err := r.Resolve(context.Background(), model.Coordinate{Lat: seoul.Lat + 1e-7, Lng: seoul.Lng})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if created || loc.ID != 4 {
		t.Errorf("Resolve = %+v, created=%v; want existing location 4", loc, created)
	}
	if geocoder.calls != 0 {
		t.Errorf("geocoder called %d times for a known coordinate", geocoder.calls)
	}
}

func TestResolveCreatesNamedLocation(t *testing.T) {
	s := seoulStore()
	geocoder := &stubGeocoder{addr: &model.Address{Name: "Gyeongbokgung", FormattedAddress: "161 Sajik-ro, Seoul"}}
	r := NewResolver(New(s), s, geocoder)

	c := model.Coordinate{Lat: 37.5796, Lng: 126.9770}
	loc, created, err := r.Resolve(context.Background(), c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || loc.ID == 0 {
		t.Fatalf("Resolve = %+v, created=%v; want a new location", loc, created)
	}
	if loc.Name == nil || *loc.Name != "Gyeongbokgung" {
		t.Errorf("name = %v; want Gyeongbokgung", loc.Name)
	}

	again, created, err := r.Resolve(context.Background(), c)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if created || again.ID != loc.ID {
		t.Errorf("second Resolve = %+v, created=%v; want location %d", again, created, loc.ID)
	}
}

func TestResolveGeocoderFailureStillCreates(t *testing.T) {
	s := memory.New()
	r := NewResolver(New(s), s, &stubGeocoder{err: errors.New("timeout")})

	loc, created, err := r.Resolve(context.Background(), model.Coordinate{Lat: 1, Lng: 2})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || loc.Name != nil {
		t.Errorf("Resolve = %+v, created=%v; want unnamed new location", loc, created)
	}
}

func TestResolveRejectsInvalidCoordinate(t *testing.T) {
	s := memory.New()
	r := NewResolver(New(s), s, nil)

	_, _, err := r.Resolve(context.Background(), model.Coordinate{Lat: -91, Lng: 0})
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("err = %v; want ErrInvalidArgument", err)
	}
	if s.Calls(memory.OpCreateLocation) != 0 {
		t.Error("location created for an invalid coordinate")
	}
}
