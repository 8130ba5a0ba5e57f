package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the service handler over a fresh ledger", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithDBPath(filepath.Join(t.TempDir(), "ledger.db")),
			service.WithRecomputeInterval(0),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		h := newHandler(ctx, svc, 100)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the API and its docs are routed", func() {
			convey.So(get("/players").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/players/nobody").Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then a posted run is queued", func() {
			body := `{"name":"ann","char":"HuFi","ktyp":"quitting","start":"2026-08-01T00:00:00Z","end":"2026-08-01T00:05:00Z"}`
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)
		})

		convey.Convey("Then the service gauges refresh without error", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
			body := get("/healthz").Body.String()
			convey.So(body, convey.ShouldContainSubstring, "tourney_ledger_players")
		})
	})
}
