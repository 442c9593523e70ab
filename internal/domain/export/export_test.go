package export

import (
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/estatecamp/internal/domain/model"
)

func TestRenderHTML(t *testing.T) {
	Convey("Given a renderer with a fixed clock", t, func() {
		generated := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		r, err := NewRenderer(WithClock(func() time.Time { return generated }))
		So(err, ShouldBeNil)

		c := model.Campaign{
			Name:      "Aurora Launch <Phase 1>",
			Project:   "Residensi Aurora",
			Objective: model.ObjectiveEventTraffic,
			Budget:    1500000,
			StartDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
			Personas: []model.Persona{
				{
					Name:        "Young Family",
					Motivations: "Good schools",
					PainPoints:  "Commute",
					Assets:      []model.CreativeAsset{{Name: "hero.jpg", Type: model.AssetImage}},
					AdCopy:      []model.AdCopy{{Headline: "Room to grow", Description: "Three bedrooms near schools"}},
				},
				{Name: "Investor", Motivations: "Yield", PainPoints: "Oversupply"},
			},
		}

		Convey("When rendering a campaign", func() {
			var buf bytes.Buffer
			So(r.RenderHTML(&buf, c), ShouldBeNil)
			html := buf.String()

			Convey("Then the overview is formatted for print", func() {
				So(html, ShouldContainSubstring, "RM 1,500,000")
				So(html, ShouldContainSubstring, "2 Jan 2025 - 30 Apr 2025")
				So(html, ShouldContainSubstring, "Drive Event Traffic")
				So(html, ShouldContainSubstring, "Generated on 14 Mar 2025 at 09:30:00 UTC")
			})

			Convey("Then user text is escaped", func() {
				So(html, ShouldContainSubstring, "Aurora Launch &lt;Phase 1&gt;")
				So(html, ShouldNotContainSubstring, "<Phase 1>")
			})

			Convey("Then personas are numbered with their creative", func() {
				So(html, ShouldContainSubstring, "Persona 1: Young Family")
				So(html, ShouldContainSubstring, "Persona 2: Investor")
				So(html, ShouldContainSubstring, "Creative Assets (1)")
				So(html, ShouldContainSubstring, "IMAGE")
				So(html, ShouldContainSubstring, "Ad Copy (1 variations)")
			})
		})
	})
}

func TestMoney(t *testing.T) {
	Convey("Given the default renderer", t, func() {
		r, err := NewRenderer()
		So(err, ShouldBeNil)

		So(r.Money(25000), ShouldEqual, "RM 25,000")
		So(r.Money(999.5), ShouldEqual, "RM 999.5")
		So(r.Money(0), ShouldEqual, "RM 0")
	})
}
