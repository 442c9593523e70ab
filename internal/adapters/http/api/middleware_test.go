package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyStatus(t *testing.T) {
	Convey("Failure statuses map to the JSON error codes", t, func() {
		cases := []struct {
			status   int
			code     string
			severity string
		}{
			{http.StatusBadRequest, "bad_request", "medium"},
			{http.StatusUnauthorized, "unauthorized", "medium"},
			{http.StatusTeapot, "client_error", "medium"},
			{http.StatusTooManyRequests, "rate_limited", "low"},
			{http.StatusServiceUnavailable, "unavailable", "low"},
			{http.StatusNotImplemented, "not_implemented", "medium"},
			{http.StatusInternalServerError, "internal", "high"},
			{http.StatusBadGateway, "internal", "high"},
		}
		for _, c := range cases {
			code, severity := classifyStatus(c.status)
			So(code, ShouldEqual, c.code)
			So(severity, ShouldEqual, c.severity)
		}
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		Convey("The first status written is the one recorded", func() {
			var seen *statusRecorder
			h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
				seen = w.(*statusRecorder)
				w.WriteHeader(http.StatusConflict)
				w.WriteHeader(http.StatusOK)
			}, "test")
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(seen.status, ShouldEqual, http.StatusConflict)
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("A body without a header counts as 200", func() {
			h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			}, "test")
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "ok")
		})
	})
}

type fixedStats map[string]any

func (f fixedStats) GetStats() map[string]any { return f }

func TestStatsHandler(t *testing.T) {
	Convey("Given a stats handler started a minute ago", t, func() {
		h := NewStatsHandler(fixedStats{"queueSize": 3})
		h.now = func() time.Time { return h.started.Add(time.Minute) }

		w := httptest.NewRecorder()
		h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

		Convey("The provider's counters and the uptime are served", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"queueSize":3`)
			So(w.Body.String(), ShouldContainSubstring, `"uptime_seconds":60`)
		})
	})
}
