package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/estatecamp/internal/adapters/repository"
	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/leadimport"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
)

func TestStatusFor(t *testing.T) {
	Convey("Given errors from every layer", t, func() {
		cases := []struct {
			err    error
			status int
		}{
			{NewKind("op", ErrUnauthorized), http.StatusUnauthorized},
			{NewKind("op", ErrRateLimited), http.StatusTooManyRequests},
			{fmt.Errorf("rescore: %w", service.ErrBackpressure), http.StatusTooManyRequests},
			{Wrap("op", fmt.Errorf("load: %w", repository.ErrNotFound)), http.StatusNotFound},
			{repository.ErrPersonaLimit, http.StatusConflict},
			{service.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
			{service.ErrPDFUnavailable, http.StatusNotImplemented},
			{model.ErrInvalidBudget, http.StatusBadRequest},
			{leadimport.ErrNoNameColumn, http.StatusBadRequest},
			{scoring.ErrMissingLeadID, http.StatusBadRequest},
			{service.ErrNotStarted, http.StatusServiceUnavailable},
			{errors.New("boom"), http.StatusInternalServerError},
		}

		Convey("Then each maps to its status", func() {
			for _, c := range cases {
				status, _ := statusFor(c.err)
				So(status, ShouldEqual, c.status)
			}
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given a wrapped error", t, func() {
		cause := errors.New("unexpected EOF")
		err := WrapKind("api.create_campaign", ErrBadRequest, cause)

		Convey("Then it reports the cause and matches both kind and cause", func() {
			So(err.Error(), ShouldEqual, "unexpected EOF")
			So(errors.Is(err, ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Then a bare kind reports the kind", func() {
			So(NewKind("op", ErrRateLimited).Error(), ShouldEqual, "rate limit exceeded")
		})
	})
}
