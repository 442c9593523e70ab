package leadsim_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/estatecamp/internal/adapters/http/api"
	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/leadsim"
	"github.com/okian/estatecamp/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithWorkerCount(2))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(api.Handler(mux))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(ctx)
	})
	return srv
}

func TestGenerate(t *testing.T) {
	Convey("Given a fixed seed", t, func() {
		a := leadsim.Generate(50, 7)
		b := leadsim.Generate(50, 7)

		Convey("Then attributes repeat but ids are fresh", func() {
			So(a, ShouldHaveLength, 50)
			for i := range a {
				So(a[i].ID, ShouldNotEqual, b[i].ID)
				So(a[i].Name, ShouldEqual, b[i].Name)
				So(a[i].Demographics, ShouldResemble, b[i].Demographics)
				So(a[i].PropertyPreferences, ShouldResemble, b[i].PropertyPreferences)
				So(len(a[i].InteractionHistory), ShouldEqual, len(b[i].InteractionHistory))
			}
		})

		Convey("Then every lead passes validation", func() {
			for _, l := range a {
				So(l.Validate(), ShouldBeNil)
				So(l.Status, ShouldEqual, model.StatusNew)
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := startServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When scoring statelessly", func() {
			out := filepath.Join(t.TempDir(), "out", "leads.json")
			stats, err := leadsim.Run(ctx, leadsim.Config{
				BaseURL:    srv.URL,
				NumLeads:   40,
				Workers:    4,
				Timeout:    5 * time.Second,
				Seed:       1,
				OutputFile: out,
			})

			Convey("Then every prediction matches the local scorer", func() {
				So(err, ShouldBeNil)
				So(stats.Submitted, ShouldEqual, 40)
				So(stats.Matched, ShouldEqual, 40)
				So(stats.Failed, ShouldEqual, 0)
			})

			Convey("Then the generated leads are saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []model.Lead
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 40)
			})
		})

		Convey("When persisting leads first", func() {
			stats, err := leadsim.Run(ctx, leadsim.Config{
				BaseURL:  srv.URL,
				NumLeads: 20,
				Workers:  4,
				Timeout:  5 * time.Second,
				Seed:     2,
				Persist:  true,
			})

			Convey("Then predictions by id match too", func() {
				So(err, ShouldBeNil)
				So(stats.Matched, ShouldEqual, 20)
			})
		})

		Convey("When asked for no leads", func() {
			_, err := leadsim.Run(ctx, leadsim.Config{BaseURL: srv.URL})

			Convey("Then it refuses", func() {
				So(err, ShouldEqual, leadsim.ErrNoLeads)
			})
		})
	})

	Convey("Given nothing listening", t, func() {
		_, err := leadsim.Run(context.Background(), leadsim.Config{
			BaseURL:  "http://127.0.0.1:1",
			NumLeads: 1,
			Timeout:  time.Second,
		})

		Convey("Then the health check fails", func() {
			So(errors.Is(err, leadsim.ErrUnhealthy), ShouldBeTrue)
		})
	})
}
