// Package repositorytest holds behaviour checks shared by every
// repository.Store implementation.
package repositorytest

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/estatecamp/internal/adapters/repository"
	"github.com/okian/estatecamp/internal/domain/model"
)

// Factory returns a fresh, empty store for one test.
type Factory func(t *testing.T) repository.Store

// Owners used by the suite.
const (
	OwnerA = "owner-a"
	OwnerB = "owner-b"
)

func ptr[T any](v T) *T { return &v }

// NewCampaign returns a valid campaign owned by ownerID.
func NewCampaign(ownerID, name string) *model.Campaign {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.Campaign{
		OwnerID:   ownerID,
		Name:      name,
		Project:   "Residensi Aurora",
		Objective: model.ObjectiveGenerateLeads,
		Budget:    25000,
		StartDate: start,
		EndDate:   start.AddDate(0, 3, 0),
	}
}

// NewLead returns a lead carrying every nested structure.
func NewLead(name string) model.Lead {
	return model.Lead{
		Name:   name,
		Email:  name + "@example.com",
		Phone:  "+60123456789",
		Status: model.StatusNew,
		Demographics: &model.Demographics{
			AgeRange:      ptr(model.Age26To35),
			IncomeBracket: ptr(model.Income10KTo20K),
			FamilySize:    ptr(3),
		},
		PropertyPreferences: &model.PropertyPreferences{
			Bedrooms:         ptr(3),
			LocationArea:     ptr("Mont Kiara"),
			BudgetMin:        ptr(600000.0),
			BudgetMax:        ptr(900000.0),
			MustHaveFeatures: []string{"pool", "gym"},
		},
		InteractionHistory: []model.Interaction{
			{Type: model.InteractionPropertyViewing, Timestamp: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		},
	}
}

// Run exercises the full Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := newStore(t)

		Convey("Campaigns are created, listed newest first and scoped to their owner", func() {
			first := NewCampaign(OwnerA, "first")
			So(store.CreateCampaign(ctx, first), ShouldBeNil)
			So(first.ID, ShouldNotBeEmpty)
			So(first.CreatedAt.IsZero(), ShouldBeFalse)

			second := NewCampaign(OwnerA, "second")
			So(store.CreateCampaign(ctx, second), ShouldBeNil)

			list, err := store.ListCampaigns(ctx, OwnerA)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			So(list[0].Name, ShouldEqual, "second")
			So(list[1].Name, ShouldEqual, "first")

			other, err := store.ListCampaigns(ctx, OwnerB)
			So(err, ShouldBeNil)
			So(other, ShouldBeEmpty)

			_, err = store.GetCampaign(ctx, OwnerB, first.ID)
			So(err, ShouldEqual, repository.ErrNotFound)

			got, err := store.GetCampaign(ctx, OwnerA, first.ID)
			So(err, ShouldBeNil)
			So(got.Budget, ShouldEqual, 25000)
			So(got.StartDate.Equal(first.StartDate), ShouldBeTrue)
		})

		Convey("A campaign without owner is rejected", func() {
			So(store.CreateCampaign(ctx, NewCampaign("", "x")), ShouldEqual, repository.ErrMissingOwner)
		})

		Convey("Campaign updates keep created_at and respect ownership", func() {
			c := NewCampaign(OwnerA, "draft")
			So(store.CreateCampaign(ctx, c), ShouldBeNil)
			created := c.CreatedAt

			c.Name = "final"
			So(store.UpdateCampaign(ctx, c), ShouldBeNil)
			So(c.CreatedAt.Equal(created), ShouldBeTrue)

			got, err := store.GetCampaign(ctx, OwnerA, c.ID)
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "final")

			foreign := *c
			foreign.OwnerID = OwnerB
			So(store.UpdateCampaign(ctx, &foreign), ShouldEqual, repository.ErrNotFound)
		})

		Convey("Personas are limited per campaign", func() {
			c := NewCampaign(OwnerA, "limited")
			So(store.CreateCampaign(ctx, c), ShouldBeNil)

			for _, name := range []string{"Young Family", "Investor", "Retiree"} {
				p := &model.Persona{CampaignID: c.ID, Name: name}
				So(store.CreatePersona(ctx, OwnerA, p, 3), ShouldBeNil)
				So(p.ID, ShouldNotBeEmpty)
			}
			err := store.CreatePersona(ctx, OwnerA, &model.Persona{CampaignID: c.ID, Name: "Fourth"}, 3)
			So(err, ShouldEqual, repository.ErrPersonaLimit)

			list, err := store.ListPersonas(ctx, OwnerA, c.ID)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 3)
			So(list[0].Name, ShouldEqual, "Young Family")
			So(list[2].Name, ShouldEqual, "Retiree")

			err = store.CreatePersona(ctx, OwnerB, &model.Persona{CampaignID: c.ID, Name: "Intruder"}, 3)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Assets and ad copy hang off personas", func() {
			c := NewCampaign(OwnerA, "creative")
			So(store.CreateCampaign(ctx, c), ShouldBeNil)
			p := &model.Persona{CampaignID: c.ID, Name: "Upgrader", Motivations: "space"}
			So(store.CreatePersona(ctx, OwnerA, p, 0), ShouldBeNil)

			asset := &model.CreativeAsset{PersonaID: p.ID, Name: "hero.png", Type: model.AssetImage, URL: "https://cdn/hero.png"}
			So(store.AddAsset(ctx, OwnerA, asset), ShouldBeNil)
			copy1 := &model.AdCopy{PersonaID: p.ID, Headline: "More room", Description: "Four bedrooms"}
			So(store.AddAdCopy(ctx, OwnerA, copy1), ShouldBeNil)

			got, err := store.GetPersona(ctx, OwnerA, p.ID)
			So(err, ShouldBeNil)
			So(len(got.Assets), ShouldEqual, 1)
			So(got.Assets[0].URL, ShouldEqual, "https://cdn/hero.png")
			So(len(got.AdCopy), ShouldEqual, 1)

			copy1.Headline = "Even more room"
			So(store.UpdateAdCopy(ctx, OwnerA, copy1), ShouldBeNil)
			So(copy1.PersonaID, ShouldEqual, p.ID)

			fetched, err := store.GetAsset(ctx, OwnerA, asset.ID)
			So(err, ShouldBeNil)
			So(fetched.Name, ShouldEqual, "hero.png")
			_, err = store.GetAsset(ctx, OwnerB, asset.ID)
			So(err, ShouldEqual, repository.ErrNotFound)

			So(store.DeleteAsset(ctx, OwnerA, asset.ID), ShouldBeNil)
			So(store.DeleteAdCopy(ctx, OwnerA, copy1.ID), ShouldBeNil)
			So(store.DeleteAdCopy(ctx, OwnerA, copy1.ID), ShouldEqual, repository.ErrNotFound)

			got, err = store.GetPersona(ctx, OwnerA, p.ID)
			So(err, ShouldBeNil)
			So(got.Assets, ShouldBeEmpty)
			So(got.AdCopy, ShouldBeEmpty)

			p.Name = "Upsizer"
			So(store.UpdatePersona(ctx, OwnerA, p), ShouldBeNil)
			So(p.Name, ShouldEqual, "Upsizer")
			So(store.DeletePersona(ctx, OwnerA, p.ID), ShouldBeNil)
			_, err = store.GetPersona(ctx, OwnerA, p.ID)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Leads round-trip with their nested data and predictions", func() {
			c := NewCampaign(OwnerA, "leads")
			So(store.CreateCampaign(ctx, c), ShouldBeNil)

			created, err := store.CreateLeads(ctx, OwnerA, c.ID, []model.Lead{NewLead("alice"), NewLead("bob")})
			So(err, ShouldBeNil)
			So(len(created), ShouldEqual, 2)
			So(created[0].ID, ShouldNotBeEmpty)
			So(created[0].CampaignID, ShouldEqual, c.ID)

			got, err := store.GetLead(ctx, OwnerA, created[0].ID)
			So(err, ShouldBeNil)
			So(*got.Demographics.IncomeBracket, ShouldEqual, model.Income10KTo20K)
			So(*got.PropertyPreferences.BudgetMax, ShouldEqual, 900000.0)
			So(got.PropertyPreferences.MustHaveFeatures, ShouldResemble, []string{"pool", "gym"})
			So(len(got.InteractionHistory), ShouldEqual, 1)
			So(got.PredictedConversionLikelihood, ShouldBeNil)

			pred := model.Prediction{PredictedConversionLikelihood: 0.85, BuyerSegment: model.SegmentUpgrader}
			So(store.UpdatePrediction(ctx, OwnerA, got.ID, pred), ShouldBeNil)

			got, err = store.GetLead(ctx, OwnerA, got.ID)
			So(err, ShouldBeNil)
			So(*got.PredictedConversionLikelihood, ShouldEqual, 0.85)
			So(*got.BuyerSegment, ShouldEqual, model.SegmentUpgrader)

			Convey("Updating a lead keeps its prediction", func() {
				reason := model.RejectPrice
				got.Status = model.StatusRejected
				got.RejectionReason = &reason
				got.AssignedPersona = ptr("Upgrader")
				got.PredictedConversionLikelihood = nil
				So(store.UpdateLead(ctx, OwnerA, &got), ShouldBeNil)

				again, err := store.GetLead(ctx, OwnerA, got.ID)
				So(err, ShouldBeNil)
				So(again.Status, ShouldEqual, model.StatusRejected)
				So(*again.RejectionReason, ShouldEqual, model.RejectPrice)
				So(*again.AssignedPersona, ShouldEqual, "Upgrader")
				So(*again.PredictedConversionLikelihood, ShouldEqual, 0.85)
			})

			Convey("Leads are hidden from other owners", func() {
				_, err := store.GetLead(ctx, OwnerB, got.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
				So(store.UpdatePrediction(ctx, OwnerB, got.ID, pred), ShouldEqual, repository.ErrNotFound)
				So(store.DeleteLead(ctx, OwnerB, got.ID), ShouldEqual, repository.ErrNotFound)
				_, err = store.CreateLeads(ctx, OwnerB, c.ID, []model.Lead{NewLead("eve")})
				So(err, ShouldEqual, repository.ErrNotFound)
			})

			Convey("Leads list oldest first and count globally", func() {
				list, err := store.ListLeads(ctx, OwnerA, c.ID)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].Name, ShouldEqual, "alice")

				n, err := store.CountLeads(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				So(store.DeleteLead(ctx, OwnerA, list[1].ID), ShouldBeNil)
				n, err = store.CountLeads(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("Deleting the campaign removes everything under it", func() {
				p := &model.Persona{CampaignID: c.ID, Name: "Investor"}
				So(store.CreatePersona(ctx, OwnerA, p, 0), ShouldBeNil)

				So(store.DeleteCampaign(ctx, OwnerA, c.ID), ShouldBeNil)
				_, err := store.GetLead(ctx, OwnerA, got.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
				_, err = store.GetPersona(ctx, OwnerA, p.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
				n, err := store.CountLeads(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(store.DeleteCampaign(ctx, OwnerA, c.ID), ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}
