package types_test

import (
	"testing"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromSubmission(t *testing.T) {
	Convey("Given a domain submission", t, func() {
		played := time.Date(2026, 8, 1, 21, 30, 0, 0, time.UTC)
		sub := model.Submission{
			PublicID:         "123456",
			SubmitterID:      "user-1",
			SubmitterName:    "DJ Nova",
			Artist:           "Nova",
			Song:             "Afterglow",
			ContentRef:       "https://example.com/track",
			Tier:             model.TierT2,
			Note:             "crowd favourite",
			EngagementHandle: "fan_one",
			WatchScore:       12.5,
			InteractionScore: 40,
			TotalScore:       52.5,
			SubmittedAt:      time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC),
			PlayedAt:         &played,
		}

		Convey("When converting to a queue entry", func() {
			entry := types.FromSubmission(sub, 3)

			Convey("Then every field should carry over", func() {
				So(entry.Position, ShouldEqual, 3)
				So(entry.PublicID, ShouldEqual, "123456")
				So(entry.SubmitterID, ShouldEqual, "user-1")
				So(entry.SubmitterName, ShouldEqual, "DJ Nova")
				So(entry.Artist, ShouldEqual, "Nova")
				So(entry.Song, ShouldEqual, "Afterglow")
				So(entry.ContentRef, ShouldEqual, "https://example.com/track")
				So(entry.Tier, ShouldEqual, "t2")
				So(entry.Note, ShouldEqual, "crowd favourite")
				So(entry.EngagementHandle, ShouldEqual, "fan_one")
				So(entry.WatchScore, ShouldEqual, 12.5)
				So(entry.InteractionScore, ShouldEqual, 40)
				So(entry.TotalScore, ShouldEqual, 52.5)
				So(entry.SubmittedAt, ShouldEqual, sub.SubmittedAt)
				So(entry.PlayedAt, ShouldNotBeNil)
				So(*entry.PlayedAt, ShouldEqual, played)
			})
		})

		Convey("When converting an unplayed submission", func() {
			sub.PlayedAt = nil
			entry := types.FromSubmission(sub, 1)

			Convey("Then the played timestamp should stay nil", func() {
				So(entry.PlayedAt, ShouldBeNil)
			})
		})
	})
}

func TestFromPage(t *testing.T) {
	Convey("Given a page of submissions", t, func() {
		items := []model.Submission{
			{PublicID: "111111", Tier: model.TierStandard},
			{PublicID: "222222", Tier: model.TierStandard},
			{PublicID: "333333", Tier: model.TierStandard},
		}

		Convey("When converting the first page", func() {
			entries := types.FromPage(model.Page{Items: items, Tier: model.TierStandard, Page: 0, Size: 10, Total: 3})

			Convey("Then positions should start at one", func() {
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Position, ShouldEqual, 1)
				So(entries[1].Position, ShouldEqual, 2)
				So(entries[2].Position, ShouldEqual, 3)
			})
		})

		Convey("When converting a later page", func() {
			entries := types.FromPage(model.Page{Items: items, Tier: model.TierStandard, Page: 2, Size: 10, Total: 23})

			Convey("Then positions should continue from the page offset", func() {
				So(entries[0].Position, ShouldEqual, 21)
				So(entries[2].Position, ShouldEqual, 23)
			})
		})

		Convey("When converting an empty page", func() {
			entries := types.FromPage(model.Page{Tier: model.TierT1, Page: 0, Size: 10})

			Convey("Then the result should be empty but not nil", func() {
				So(entries, ShouldNotBeNil)
				So(len(entries), ShouldEqual, 0)
			})
		})
	})
}

func TestFromIdentity(t *testing.T) {
	Convey("Given a domain identity", t, func() {
		first := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
		last := time.Date(2026, 8, 1, 22, 0, 0, 0, time.UTC)
		id := model.Identity{
			Handle:            "fan_one",
			LinkedSubmitterID: "user-1",
			LifetimePoints:    310,
			LifetimeCoins:     1500,
			Likes:             120,
			Comments:          45,
			Shares:            10,
			Follows:           1,
			FirstSeenAt:       first,
			LastSeenAt:        last,
		}

		Convey("When converting to the wire shape", func() {
			stats := types.FromIdentity(id)

			Convey("Then every counter should carry over", func() {
				So(stats.Handle, ShouldEqual, "fan_one")
				So(stats.LinkedSubmitterID, ShouldEqual, "user-1")
				So(stats.LifetimePoints, ShouldEqual, 310)
				So(stats.LifetimeCoins, ShouldEqual, 1500)
				So(stats.Likes, ShouldEqual, 120)
				So(stats.Comments, ShouldEqual, 45)
				So(stats.Shares, ShouldEqual, 10)
				So(stats.Follows, ShouldEqual, 1)
				So(stats.FirstSeenAt, ShouldEqual, first)
				So(stats.LastSeenAt, ShouldEqual, last)
			})
		})

		Convey("When converting an unlinked identity", func() {
			id.LinkedSubmitterID = ""
			stats := types.FromIdentity(id)

			Convey("Then the linked submitter should stay empty", func() {
				So(stats.LinkedSubmitterID, ShouldBeEmpty)
			})
		})
	})
}
