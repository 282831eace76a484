//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/snapguide_api/internal/assembler"
	"github.com/bwise1/snapguide_api/internal/db"
	"github.com/bwise1/snapguide_api/internal/finder"
	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/bwise1/snapguide_api/internal/pagination"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgisImage = "postgis/postgis:16-3.4"

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostGIS runs a throwaway PostGIS container with the schema applied.
func startPostGIS(t *testing.T) *db.DB {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgisImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "snapguide",
				"POSTGRES_PASSWORD": "snapguide",
				"POSTGRES_DB":       "snapguide",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgis: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://snapguide:snapguide@%s:%s/snapguide?sslmode=disable", host, port.Port())
	database, err := db.New(dsn, db.Options{MaxConns: 10, MinConns: 1, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(database.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := database.Pool().Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return database
}

func mustExec(t *testing.T, d *db.DB, sql string, args ...any) {
	t.Helper()
	if _, err := d.Pool().Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func TestPostgresStore(t *testing.T) {
	d := startPostGIS(t)
	s := New(d)
	ctx := context.Background()

	mustExec(t, d, `INSERT INTO users (id, email) VALUES (1, 'author@example.com'), (2, 'viewer@example.com')`)
	for _, l := range []struct {
		id       int64
		lat, lng float64
		name     *string
	}{
		{1, 37.60, 126.98, nil},
		{2, 37.60, 127.03, nil},
		{3, 37.60, 127.05, nil},
		{4, 37.5665, 126.9780, strPtr("Seoul City Hall")},
	} {
		mustExec(t, d, `INSERT INTO locations (id, latitude, longitude, position, name)
            VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography, $4)`, l.id, l.lat, l.lng, l.name)
	}
	mustExec(t, d, `SELECT setval('locations_id_seq', 100)`)
	mustExec(t, d, `INSERT INTO guides (id, tip, user_id, location_id) VALUES
        (10, 'a', 1, 4), (11, 'b', 1, 1), (12, 'c', 1, 2), (13, 'd', 1, 4), (14, 'e', 2, NULL)`)
	mustExec(t, d, `INSERT INTO media (guide_id, file_name, url) VALUES (10, 'a.jpg', 'u1'), (10, 'b.jpg', 'u2'), (13, 'c.jpg', 'u3')`)

	seoul := model.Coordinate{Lat: 37.5665, Lng: 126.9780}

	t.Run("strategies", func(t *testing.T) {
		f := finder.New(s)
		want := map[finder.Strategy][]int64{
			finder.StrategyExact:  {4},
			finder.StrategySquare: {1, 2, 4},
			finder.StrategyRadius: {1, 4},
			finder.StrategyNearby: {1, 4},
		}
		for strategy, ids := range want {
			locs, err := f.Search(ctx, strategy, seoul, 5)
			if err != nil {
				t.Fatalf("Search(%s): %v", strategy, err)
			}
			if got := finder.IDs(locs); !reflect.DeepEqual(got, ids) {
				t.Errorf("Search(%s) = %v; want %v", strategy, got, ids)
			}
		}
	})

	t.Run("single and two stage agree", func(t *testing.T) {
		a := assembler.New(s, s, s)
		req := pagination.Request{Size: 2}

		near, err := a.Near(ctx, seoul, 5, req, nil)
		if err != nil {
			t.Fatalf("Near: %v", err)
		}
		byLoc, err := a.ByLocationIDs(ctx, []int64{1, 4}, req, nil)
		if err != nil {
			t.Fatalf("ByLocationIDs: %v", err)
		}
		if !reflect.DeepEqual(near, byLoc) {
			t.Errorf("Near = %+v\nByLocationIDs = %+v", near, byLoc)
		}
		if len(near.Content) != 2 || near.Content[0].ID != 10 || !near.HasNext {
			t.Errorf("first page = %+v", near)
		}
		if len(near.Content[0].Media) != 2 || *near.Content[0].LocationName != "Seoul City Hall" {
			t.Errorf("guide 10 = %+v", near.Content[0])
		}

		next, err := a.Near(ctx, seoul, 5, pagination.Request{Cursor: near.NextCursor, Size: 2}, nil)
		if err != nil {
			t.Fatalf("Near page 2: %v", err)
		}
		if len(next.Content) != 1 || next.Content[0].ID != 13 || next.HasNext {
			t.Errorf("second page = %+v", next)
		}
	})

	t.Run("likes", func(t *testing.T) {
		if _, err := s.FindLikedGuideIDs(ctx, 999, []int64{10}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("unknown viewer err = %v; want ErrNotFound", err)
		}
		liked, err := s.FindLikedGuideIDs(ctx, 2, []int64{10, 11})
		if err != nil || len(liked) != 0 {
			t.Errorf("liked = %v, %v; want none", liked, err)
		}

		res, err := s.ToggleLike(ctx, 10, 2)
		if err != nil || !res.Liked || res.LikeCount != 1 {
			t.Fatalf("like = %+v, %v", res, err)
		}
		liked, err = s.FindLikedGuideIDs(ctx, 2, []int64{10, 11})
		if err != nil || !reflect.DeepEqual(liked, []int64{10}) {
			t.Errorf("liked = %v, %v; want [10]", liked, err)
		}
		res, err = s.ToggleLike(ctx, 10, 2)
		if err != nil || res.Liked || res.LikeCount != 0 {
			t.Fatalf("unlike = %+v, %v", res, err)
		}
		if _, err := s.ToggleLike(ctx, 404, 2); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("unknown guide err = %v; want ErrNotFound", err)
		}
	})

	t.Run("concurrent likes keep the counter exact", func(t *testing.T) {
		for id := 100; id < 120; id++ {
			mustExec(t, d, `INSERT INTO users (id, email) VALUES ($1, $2)`, id, fmt.Sprintf("u%d@example.com", id))
		}
		var wg sync.WaitGroup
		for id := int64(100); id < 120; id++ {
			wg.Add(1)
			go func(viewer int64) {
				defer wg.Done()
				if _, err := s.ToggleLike(ctx, 11, viewer); err != nil {
					t.Errorf("viewer %d: %v", viewer, err)
				}
			}(id)
		}
		wg.Wait()

		row, err := s.FindGuideByID(ctx, 11)
		if err != nil {
			t.Fatalf("FindGuideByID: %v", err)
		}
		if row.LikeCount != 20 {
			t.Errorf("like count = %d; want 20", row.LikeCount)
		}
	})

	t.Run("create location", func(t *testing.T) {
		loc, err := s.CreateLocation(ctx, model.Location{
			Coordinate: model.Coordinate{Lat: 35.1796, Lng: 129.0756},
			Name:       strPtr("Busan"),
			Raw:        []byte(`{"source":"test"}`),
		})
		if err != nil {
			t.Fatalf("CreateLocation: %v", err)
		}
		found, err := s.FindByCoordinate(ctx, loc.Coordinate, model.CoordinateEpsilon)
		if err != nil || len(found) != 1 || found[0].ID != loc.ID {
			t.Errorf("FindByCoordinate = %+v, %v", found, err)
		}
	})

	t.Run("guides by author", func(t *testing.T) {
		rows, err := s.FindGuidesByAuthor(ctx, 2, nil, 10)
		if err != nil || len(rows) != 1 || rows[0].ID != 14 || rows[0].LocationName != nil {
			t.Errorf("FindGuidesByAuthor = %+v, %v", rows, err)
		}
	})

	t.Run("user", func(t *testing.T) {
		if _, err := s.FindUserByID(ctx, 404); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err = %v; want ErrNotFound", err)
		}
	})
}

func strPtr(s string) *string { return &s }
