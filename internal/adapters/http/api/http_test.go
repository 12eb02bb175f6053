package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/comprank/internal/adapters/http/api"
	"github.com/okian/comprank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	ranked     []model.ScoredComp
	rankErr    error
	lastLobby  model.Lobby
	rankErrors int
	metaErr    error
	metaCalls  int
	dets       []model.UnitDetection
	detectErr  error
	lastPath   string
}

func (m *mockDependencies) BestComps(ctx context.Context, lobbyJSON []byte) ([]model.ScoredComp, error) {
	lobby, err := model.DecodeLobby(lobbyJSON)
	if err != nil {
		m.rankErrors++
		return nil, model.WrapKind("mock.best_comps", model.ErrInvalidInput, err)
	}
	return m.Rank(ctx, lobby)
}

func (m *mockDependencies) Rank(_ context.Context, lobby model.Lobby) ([]model.ScoredComp, error) {
	m.lastLobby = lobby
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.ranked, nil
}

func (m *mockDependencies) UpdateMeta(context.Context) error {
	m.metaCalls++
	return m.metaErr
}

func (m *mockDependencies) DetectUnits(_ context.Context, path string) ([]model.UnitDetection, error) {
	m.lastPath = path
	if m.detectErr != nil {
		return nil, m.detectErr
	}
	return m.dets, nil
}

func (m *mockDependencies) DetectAndRank(ctx context.Context, path string) ([]model.ScoredComp, error) {
	if _, err := m.DetectUnits(ctx, path); err != nil {
		return nil, err
	}
	return m.Rank(ctx, model.Lobby{})
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"rankings": 2}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"rankings":2`)
		})

		Convey("And wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/best-comps", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/update-meta", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/detect-units", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a nil mux", t, func() {
		server := api.NewServer(&mockDependencies{}, &mockStatsProvider{})

		Convey("Then registering panics", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestHandleBestComps(t *testing.T) {
	Convey("Given a server whose ranking succeeds", t, func() {
		deps := &mockDependencies{ranked: []model.ScoredComp{
			{Name: "Sorcerers", Score: 1.6},
			{Name: "Brawlers", Score: 1.2},
		}}
		mux := newMux(deps)

		Convey("When posting a valid lobby", func() {
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":["Ahri"],"enemy_units":[["Vi"]]}`)

			Convey("Then the ranking is returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []model.ScoredComp
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.ranked)
				So(deps.lastLobby.MyUnits, ShouldResemble, []string{"Ahri"})
				So(deps.lastLobby.EnemyUnits, ShouldResemble, [][]string{{"Vi"}})
			})
		})

		Convey("When the ranking is empty", func() {
			deps.ranked = []model.ScoredComp{}
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":[],"enemy_units":[]}`)

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the lobby is missing a field", func() {
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":["Ahri"]}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "enemy_units")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/best-comps", `not json`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the lobby has a stray closing bracket", func() {
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":[],"enemy_units":[]}]`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When lobbies fail to parse", func() {
			do(mux, http.MethodPost, "/best-comps", `{"my_units":["Ahri"]}`)
			do(mux, http.MethodPost, "/best-comps", `not json`)

			Convey("Then the service sees every failure", func() {
				So(deps.rankErrors, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a server whose pool is unavailable", t, func() {
		deps := &mockDependencies{rankErr: model.WrapKind("repository.pool", model.ErrDataUnavailable, errors.New("failed to read comps.json"))}
		mux := newMux(deps)

		Convey("When posting a lobby", func() {
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":[],"enemy_units":[]}`)

			Convey("Then the service is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "data_unavailable")
				So(body["message"], ShouldContainSubstring, "comps.json")
			})
		})
	})

	Convey("Given a server whose pool file is malformed", t, func() {
		deps := &mockDependencies{rankErr: model.Parsef("model.decode_pool", "missing field `name`")}
		mux := newMux(deps)

		Convey("When posting a lobby", func() {
			w := do(mux, http.MethodPost, "/best-comps", `{"my_units":[],"enemy_units":[]}`)

			Convey("Then it is a server-side data format error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "data_format")
			})
		})
	})
}

func TestHandleUpdateMeta(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the refresh succeeds", func() {
			w := do(mux, http.MethodPost, "/update-meta", "")

			Convey("Then status ok is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"ok"}`)
				So(deps.metaCalls, ShouldEqual, 1)
			})
		})

		Convey("When the refresh fails", func() {
			deps.metaErr = model.WrapKind("refresh", model.ErrExternalProcess, errors.New("sh exited with status 1: npm ERR!"))
			w := do(mux, http.MethodPost, "/update-meta", "")

			Convey("Then the failure is a bad gateway with the reason", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "external_process")
				So(body["message"], ShouldContainSubstring, "npm ERR!")
			})
		})
	})
}

func TestHandleDetectUnits(t *testing.T) {
	Convey("Given a server with a detector", t, func() {
		deps := &mockDependencies{
			dets:   []model.UnitDetection{{Champ: "Ahri", X: 10, Y: 20, Conf: 0.9}},
			ranked: []model.ScoredComp{{Name: "Sorcerers", Score: 1.3}},
		}
		mux := newMux(deps)

		Convey("When posting a path", func() {
			w := do(mux, http.MethodPost, "/detect-units", `{"path":"shot.png"}`)

			Convey("Then detections are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []model.UnitDetection
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.dets)
				So(deps.lastPath, ShouldEqual, "shot.png")
			})
		})

		Convey("When the detector finds nothing", func() {
			deps.dets = nil
			w := do(mux, http.MethodPost, "/detect-units", `{"path":"shot.png"}`)

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the path is missing", func() {
			w := do(mux, http.MethodPost, "/detect-units", `{}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "missing path")
			})
		})

		Convey("When the detector fails", func() {
			deps.detectErr = model.WrapKind("detect", model.ErrExternalProcess, errors.New("invalid UTF-8 from detector"))
			w := do(mux, http.MethodPost, "/detect-units", `{"path":"shot.png"}`)

			Convey("Then the failure is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decodeError(w)["message"], ShouldContainSubstring, "invalid UTF-8")
			})
		})

		Convey("When detecting and ranking", func() {
			w := do(mux, http.MethodPost, "/detect-and-rank", `{"path":"shot.png"}`)

			Convey("Then the ranking is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []model.ScoredComp
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.ranked)
			})
		})

		Convey("When detect-and-rank gets malformed JSON", func() {
			w := do(mux, http.MethodPost, "/detect-and-rank", `{"path":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped in the metrics middleware", t, func() {
		handler := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("When it is called", func() {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			Convey("Then the status code passes through", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
			})
		})
	})
}
