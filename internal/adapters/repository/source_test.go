package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/comprank/internal/adapters/repository"
	"github.com/okian/comprank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const alphaPool = `[{"name":"Comp Alpha","champions":["A","B"],"base_power":3.5}]`

const betaPool = `[
	{"name":"Comp Beta","champions":["C"],"base_power":3.4},
	{"name":"Comp Gamma","champions":["D"],"base_power":3.3}
]`

func writePool(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pool: %v", err)
	}
}

func TestFileSource_Pool(t *testing.T) {
	Convey("Given a pool file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "comps.json")
		writePool(t, path, alphaPool)
		src := repository.NewFileSource(path)
		ctx := context.Background()

		Convey("When reading the pool", func() {
			pool, err := src.Pool(ctx)

			Convey("Then the compositions are decoded", func() {
				So(err, ShouldBeNil)
				So(pool, ShouldResemble, []model.Composition{{Name: "Comp Alpha", Champions: []string{"A", "B"}, BasePower: 3.5}})
			})
		})

		Convey("When the file changes without a watcher", func() {
			_, err := src.Pool(ctx)
			So(err, ShouldBeNil)
			writePool(t, path, betaPool)

			Convey("Then the next call sees the new content", func() {
				pool, err := src.Pool(ctx)
				So(err, ShouldBeNil)
				So(pool, ShouldHaveLength, 2)
				So(pool[0].Name, ShouldEqual, "Comp Beta")
			})
		})

		Convey("When the caller mutates the returned slice", func() {
			pool, _ := src.Pool(ctx)
			pool[0] = model.Composition{Name: "hijacked"}

			Convey("Then later calls are unaffected", func() {
				again, err := src.Pool(ctx)
				So(err, ShouldBeNil)
				So(again[0].Name, ShouldEqual, "Comp Alpha")
			})
		})

		Convey("When the file holds malformed JSON", func() {
			writePool(t, path, `[{"name":"broken"`)
			_, err := src.Pool(ctx)

			Convey("Then a parse error names the file", func() {
				So(errors.Is(err, model.ErrParse), ShouldBeTrue)
				So(errors.Is(err, model.ErrDataUnavailable), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, path)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := src.Pool(cctx)
			So(errors.Is(err, model.ErrDataUnavailable), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a missing pool file", t, func() {
		path := filepath.Join(t.TempDir(), "missing", "comps.json")
		src := repository.NewFileSource(path)

		Convey("Then the pool is unavailable", func() {
			_, err := src.Pool(context.Background())
			So(errors.Is(err, model.ErrDataUnavailable), ShouldBeTrue)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "failed to read")
		})
	})

	Convey("Given an empty path", t, func() {
		src := repository.NewFileSource("")

		Convey("Then reading and watching both fail", func() {
			_, err := src.Pool(context.Background())
			So(errors.Is(err, repository.ErrEmptyPath), ShouldBeTrue)
			So(errors.Is(err, model.ErrDataUnavailable), ShouldBeTrue)
			So(src.Watch(context.Background()), ShouldEqual, repository.ErrEmptyPath)
		})
	})
}

func TestFileSource_Watch(t *testing.T) {
	Convey("Given a watched pool file", t, func() {
		path := filepath.Join(t.TempDir(), "comps.json")
		writePool(t, path, alphaPool)
		src := repository.NewFileSource(path)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- src.Watch(ctx) }()
		waitFor(func() bool { return src.Watching() })

		Reset(func() {
			cancel()
			<-done
		})

		Convey("When a second watcher starts", func() {
			err := src.Watch(ctx)
			So(err, ShouldEqual, repository.ErrAlreadyWatching)
		})

		Convey("When the file is rewritten", func() {
			pool, err := src.Pool(ctx)
			So(err, ShouldBeNil)
			So(pool[0].Name, ShouldEqual, "Comp Alpha")

			writePool(t, path, betaPool)

			Convey("Then the cache is dropped and the new pool is served", func() {
				ok := waitFor(func() bool {
					p, err := src.Pool(ctx)
					return err == nil && len(p) == 2
				})
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the pool is invalidated explicitly", func() {
			_, err := src.Pool(ctx)
			So(err, ShouldBeNil)
			So(os.Remove(path), ShouldBeNil)
			src.Invalidate()

			Convey("Then the missing file surfaces", func() {
				_, err := src.Pool(ctx)
				So(errors.Is(err, model.ErrDataUnavailable), ShouldBeTrue)
			})
		})
	})
}

// waitFor polls cond for up to two seconds.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
