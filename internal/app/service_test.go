package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/estatecamp/internal/adapters/blob"
	"github.com/okian/estatecamp/internal/adapters/repository"
	service "github.com/okian/estatecamp/internal/app"
	"github.com/okian/estatecamp/internal/domain/model"
	"github.com/okian/estatecamp/internal/domain/scoring"
	"github.com/okian/estatecamp/pkg/logger"
)

const owner = "owner-1"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newCampaign(name string) *model.Campaign {
	return &model.Campaign{
		Name:      name,
		Project:   "Seri Residensi",
		Objective: model.ObjectiveGenerateLeads,
		Budget:    50_000,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(100)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

type fakePrinter struct {
	html []byte
}

func (p *fakePrinter) Print(_ context.Context, html []byte) ([]byte, error) {
	p.html = html
	return []byte("%PDF-1.4 fake"), nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(500),
			service.WithDedupeSize(250),
			service.WithMaxPersonas(4),
		)

		Convey("Then operations fail before Start", func() {
			_, err := svc.ListCampaigns(context.Background(), owner)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started twice and stopped twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.GetStats()

			Convey("Then stats reflect the configuration", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 3)
				So(stats["maxPersonas"], ShouldEqual, 4)
				So(stats["totalLeads"], ShouldEqual, 0)
				So(svc.Stop(context.Background()), ShouldBeNil)
				So(svc.Stop(context.Background()), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Campaigns(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(service.WithMaxPersonas(3))
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		Convey("Invalid campaigns are rejected", func() {
			c := newCampaign("")
			So(errors.Is(svc.CreateCampaign(ctx, owner, c), model.ErrValidation), ShouldBeTrue)

			c = newCampaign("Launch")
			c.EndDate = c.StartDate
			So(svc.CreateCampaign(ctx, owner, c), ShouldEqual, model.ErrInvalidDateRange)
		})

		Convey("When a campaign with personas exists", func() {
			c := newCampaign("Launch")
			So(svc.CreateCampaign(ctx, owner, c), ShouldBeNil)
			So(c.ID, ShouldNotBeEmpty)

			first := &model.Persona{CampaignID: c.ID, Name: "Young Professionals"}
			So(svc.CreatePersona(ctx, owner, first), ShouldBeNil)

			detail, err := svc.GetCampaign(ctx, owner, c.ID)
			So(err, ShouldBeNil)

			Convey("Then it is not ready with a single persona", func() {
				So(detail.Ready, ShouldBeFalse)
				So(detail.Personas, ShouldHaveLength, 1)
			})

			Convey("Then a second persona makes it ready", func() {
				So(svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID, Name: "Families"}), ShouldBeNil)
				detail, err := svc.GetCampaign(ctx, owner, c.ID)
				So(err, ShouldBeNil)
				So(detail.Ready, ShouldBeTrue)
			})

			Convey("Then the persona cap is enforced", func() {
				So(svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID, Name: "B"}), ShouldBeNil)
				So(svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID, Name: "C"}), ShouldBeNil)
				err := svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID, Name: "D"})
				So(errors.Is(err, repository.ErrPersonaLimit), ShouldBeTrue)
			})

			Convey("Then a persona needs a name", func() {
				err := svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID})
				So(err, ShouldEqual, model.ErrPersonaNameRequired)
			})

			Convey("Then ad copy needs both fields", func() {
				err := svc.AddAdCopy(ctx, owner, &model.AdCopy{PersonaID: first.ID, Headline: "Own it"})
				So(err, ShouldEqual, model.ErrAdCopyIncomplete)

				ad := &model.AdCopy{PersonaID: first.ID, Headline: "Own it", Description: "From RM 450k"}
				So(svc.AddAdCopy(ctx, owner, ad), ShouldBeNil)
				ad.Headline = "Own it now"
				So(svc.UpdateAdCopy(ctx, owner, ad), ShouldBeNil)
				So(svc.DeleteAdCopy(ctx, owner, ad.ID), ShouldBeNil)
			})

			Convey("Then another owner cannot see it", func() {
				_, err := svc.GetCampaign(ctx, "owner-2", c.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then deleting it removes it", func() {
				So(svc.DeleteCampaign(ctx, owner, c.ID), ShouldBeNil)
				list, err := svc.ListCampaigns(ctx, owner)
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Leads(t *testing.T) {
	Convey("Given a campaign with one persona", t, func() {
		svc := startService()
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		c := newCampaign("Launch")
		So(svc.CreateCampaign(ctx, owner, c), ShouldBeNil)
		So(svc.CreatePersona(ctx, owner, &model.Persona{CampaignID: c.ID, Name: "Investors"}), ShouldBeNil)

		Convey("A lead gets the default status", func() {
			l := &model.Lead{Name: "Aisyah"}
			So(svc.CreateLead(ctx, owner, c.ID, l), ShouldBeNil)
			So(l.Status, ShouldEqual, model.StatusNew)
			So(l.CampaignID, ShouldEqual, c.ID)
		})

		Convey("An assigned persona must belong to the campaign", func() {
			unknown := "Retirees"
			err := svc.CreateLead(ctx, owner, c.ID, &model.Lead{Name: "Ali", AssignedPersona: &unknown})
			So(err, ShouldEqual, service.ErrUnknownPersona)

			known := "Investors"
			So(svc.CreateLead(ctx, owner, c.ID, &model.Lead{Name: "Ali", AssignedPersona: &known}), ShouldBeNil)
		})

		Convey("A rejection reason is dropped when the lead is not rejected", func() {
			reason := model.RejectPrice
			l := &model.Lead{Name: "Tan", Status: model.StatusContacted, RejectionReason: &reason}
			So(svc.CreateLead(ctx, owner, c.ID, l), ShouldBeNil)
			So(l.RejectionReason, ShouldBeNil)

			l.Status = model.StatusRejected
			l.RejectionReason = &reason
			So(svc.UpdateLead(ctx, owner, l), ShouldBeNil)
			got, err := svc.GetLead(ctx, owner, l.ID)
			So(err, ShouldBeNil)
			So(*got.RejectionReason, ShouldEqual, model.RejectPrice)
		})

		Convey("An unknown status is rejected", func() {
			err := svc.CreateLead(ctx, owner, c.ID, &model.Lead{Name: "X", Status: "Lost"})
			So(err, ShouldEqual, model.ErrInvalidStatus)
		})

		Convey("Deleting a lead removes it", func() {
			l := &model.Lead{Name: "Gone"}
			So(svc.CreateLead(ctx, owner, c.ID, l), ShouldBeNil)
			So(svc.DeleteLead(ctx, owner, l.ID), ShouldBeNil)
			_, err := svc.GetLead(ctx, owner, l.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_PredictLead(t *testing.T) {
	Convey("Given a stored lead", t, func() {
		svc := startService()
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		c := newCampaign("Launch")
		So(svc.CreateCampaign(ctx, owner, c), ShouldBeNil)
		l := &model.Lead{Name: "Nora"}
		So(svc.CreateLead(ctx, owner, c.ID, l), ShouldBeNil)

		Convey("When predicting from inline lead data", func() {
			age := model.Age26To35
			data := model.Lead{ID: l.ID, Name: "Nora", Demographics: &model.Demographics{AgeRange: &age}}
			p, err := svc.PredictLead(ctx, owner, service.PredictRequest{Lead: &data})

			Convey("Then the inline data is scored and persisted", func() {
				So(err, ShouldBeNil)
				So(p.PredictedConversionLikelihood, ShouldEqual, 0.65)
				So(p.BuyerSegment, ShouldEqual, model.SegmentFirstTimeBuyer)
				got, err := svc.GetLead(ctx, owner, l.ID)
				So(err, ShouldBeNil)
				So(*got.PredictedConversionLikelihood, ShouldEqual, 0.65)
			})
		})

		Convey("When predicting by id", func() {
			p, err := svc.PredictLead(ctx, owner, service.PredictRequest{LeadID: l.ID})

			Convey("Then the stored lead is scored", func() {
				So(err, ShouldBeNil)
				So(p.PredictedConversionLikelihood, ShouldEqual, 0.5)
				So(p.ConfidenceScore, ShouldEqual, 0.85)
			})
		})

		Convey("When no id is given", func() {
			_, err := svc.PredictLead(ctx, owner, service.PredictRequest{Lead: &model.Lead{Name: "anon"}})
			So(err, ShouldEqual, scoring.ErrMissingLeadID)
		})

		Convey("When the lead does not exist", func() {
			_, err := svc.PredictLead(ctx, owner, service.PredictRequest{Lead: &model.Lead{ID: "missing"}})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When scoring without storage", func() {
			p, err := svc.ScoreLead(ctx, model.Lead{ID: "inline"})
			So(err, ShouldBeNil)
			So(p.PredictedConversionLikelihood, ShouldEqual, 0.5)
		})
	})
}

func TestService_Assets(t *testing.T) {
	Convey("Given a persona and an in-memory blob store", t, func() {
		blobs := blob.NewMemoryStore("/blobs")
		svc := startService(service.WithBlobStore(blobs))
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		c := newCampaign("Launch")
		So(svc.CreateCampaign(ctx, owner, c), ShouldBeNil)
		p := &model.Persona{CampaignID: c.ID, Name: "Families"}
		So(svc.CreatePersona(ctx, owner, p), ShouldBeNil)

		Convey("When a PNG is uploaded", func() {
			asset, err := svc.UploadAsset(ctx, owner, service.Upload{
				PersonaID: p.ID, FileName: "hero.png", Body: bytes.NewReader(pngHeader), Size: int64(len(pngHeader)),
			})

			Convey("Then it is stored as an image", func() {
				So(err, ShouldBeNil)
				So(asset.Type, ShouldEqual, model.AssetImage)
				So(asset.URL, ShouldStartWith, "/blobs/personas/"+p.ID+"/hero_")
				So(blobs.Len(), ShouldEqual, 1)

				obj, err := svc.OpenBlob(ctx, strings.TrimPrefix(asset.URL, "/blobs/"))
				So(err, ShouldBeNil)
				So(obj.ContentType, ShouldEqual, "image/png")
				_ = obj.Body.Close()
			})

			Convey("Then deleting it removes the bytes too", func() {
				So(svc.DeleteAsset(ctx, owner, asset.ID), ShouldBeNil)
				So(blobs.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a text file is uploaded", func() {
			_, err := svc.UploadAsset(ctx, owner, service.Upload{
				PersonaID: p.ID, FileName: "notes.txt", Body: strings.NewReader("just some notes"), Size: -1,
			})
			So(errors.Is(err, service.ErrUnsupportedMedia), ShouldBeTrue)
			So(blobs.Len(), ShouldEqual, 0)
		})

		Convey("When the upload is empty", func() {
			_, err := svc.UploadAsset(ctx, owner, service.Upload{PersonaID: p.ID, FileName: "x.png", Body: strings.NewReader("")})
			So(err, ShouldEqual, service.ErrEmptyUpload)
		})

		Convey("When the persona belongs to someone else", func() {
			_, err := svc.UploadAsset(ctx, "owner-2", service.Upload{PersonaID: p.ID, FileName: "x.png", Body: bytes.NewReader(pngHeader)})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Export(t *testing.T) {
	Convey("Given a campaign", t, func() {
		printer := &fakePrinter{}
		svc := startService(service.WithPDFPrinter(printer))
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		c := newCampaign("Riverside Launch")
		So(svc.CreateCampaign(ctx, owner, c), ShouldBeNil)

		Convey("HTML export renders the plan", func() {
			var buf bytes.Buffer
			So(svc.ExportHTML(ctx, owner, c.ID, &buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "Riverside Launch")
		})

		Convey("PDF export prints the rendered plan", func() {
			out, err := svc.ExportPDF(ctx, owner, c.ID)
			So(err, ShouldBeNil)
			So(string(out), ShouldStartWith, "%PDF")
			So(string(printer.html), ShouldContainSubstring, "Riverside Launch")
		})

		Convey("PDF export without a printer is unavailable", func() {
			plain := startService()
			defer func() { _ = plain.Stop(context.Background()) }()
			_, err := plain.ExportPDF(ctx, owner, c.ID)
			So(err, ShouldEqual, service.ErrPDFUnavailable)
		})
	})
}
