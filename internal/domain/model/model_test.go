package model_test

import (
	"testing"
	"time"

	model "github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestTier(t *testing.T) {
	convey.Convey("Given the tier enumeration", t, func() {
		convey.Convey("When parsing wire strings", func() {
			convey.Convey("Then known tiers parse", func() {
				for _, name := range []string{
					"standard", "t1", "t2", "t3", "t4", "t5plus",
					"pending_approval", "archived",
				} {
					tier, err := model.ParseTier(name)
					convey.So(err, convey.ShouldBeNil)
					convey.So(tier.String(), convey.ShouldEqual, name)
				}
			})

			convey.Convey("Then unknown strings are rejected", func() {
				for _, name := range []string{"", "t6", "Standard", "TIER1", "t5+"} {
					_, err := model.ParseTier(name)
					convey.So(err, convey.ShouldNotBeNil)
				}
			})
		})

		convey.Convey("When classifying tiers", func() {
			convey.Convey("Then dispatchable tiers exclude holding and terminal", func() {
				convey.So(model.TierStandard.Dispatchable(), convey.ShouldBeTrue)
				convey.So(model.TierT1.Dispatchable(), convey.ShouldBeTrue)
				convey.So(model.TierT5Plus.Dispatchable(), convey.ShouldBeTrue)
				convey.So(model.TierPendingApproval.Dispatchable(), convey.ShouldBeFalse)
				convey.So(model.TierArchived.Dispatchable(), convey.ShouldBeFalse)
			})

			convey.Convey("Then only archived is terminal", func() {
				for _, tier := range model.Tiers() {
					convey.So(tier.Terminal(), convey.ShouldEqual, tier == model.TierArchived)
				}
			})

			convey.Convey("Then scoreable matches dispatchable", func() {
				for _, tier := range model.Tiers() {
					convey.So(tier.Scoreable(), convey.ShouldEqual, tier.Dispatchable())
				}
			})
		})

		convey.Convey("When listing all tiers", func() {
			convey.Convey("Then every tier appears exactly once", func() {
				all := model.Tiers()
				convey.So(len(all), convey.ShouldEqual, 8)
				seen := make(map[model.Tier]bool, len(all))
				for _, tier := range all {
					convey.So(seen[tier], convey.ShouldBeFalse)
					seen[tier] = true
				}
			})
		})
	})
}

func TestEventKind(t *testing.T) {
	convey.Convey("Given live event kinds", t, func() {
		convey.Convey("When parsing wire strings", func() {
			convey.Convey("Then known kinds parse", func() {
				for _, name := range []string{
					"connect", "disconnect", "join", "like",
					"comment", "share", "follow", "gift",
				} {
					kind, ok := model.ParseEventKind(name)
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(string(kind), convey.ShouldEqual, name)
				}
			})

			convey.Convey("Then unknown strings are rejected", func() {
				for _, name := range []string{"", "Like", "superchat", "gift "} {
					_, ok := model.ParseEventKind(name)
					convey.So(ok, convey.ShouldBeFalse)
				}
			})
		})

		convey.Convey("When building a gift event", func() {
			event := model.LiveEvent{
				EventID:  "evt-1",
				Kind:     model.EventGift,
				Handle:   "viewer_a",
				Coins:    500,
				GiftName: "rose",
				Streak:   true,
				TS:       time.Now(),
			}

			convey.Convey("Then the fields round-trip", func() {
				convey.So(event.Kind, convey.ShouldEqual, model.EventGift)
				convey.So(event.Coins, convey.ShouldEqual, 500)
				convey.So(event.Streak, convey.ShouldBeTrue)
			})
		})
	})
}

func TestPage(t *testing.T) {
	convey.Convey("Given a page of submissions", t, func() {
		convey.Convey("When the tier is empty", func() {
			page := model.Page{Tier: model.TierStandard, Size: 10}

			convey.Convey("Then there is still one page to render", func() {
				convey.So(page.PageCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the total does not divide evenly", func() {
			page := model.Page{Tier: model.TierT2, Size: 10, Total: 31}

			convey.Convey("Then the remainder gets its own page", func() {
				convey.So(page.PageCount(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the total divides evenly", func() {
			page := model.Page{Tier: model.TierT2, Size: 10, Total: 30}

			convey.Convey("Then there is no trailing empty page", func() {
				convey.So(page.PageCount(), convey.ShouldEqual, 3)
			})
		})
	})
}

func TestSession(t *testing.T) {
	convey.Convey("Given a session", t, func() {
		convey.Convey("When it has no end timestamp", func() {
			session := model.Session{ID: "s-1", HostHandle: "host", StartedAt: time.Now()}

			convey.Convey("Then it reports open", func() {
				convey.So(session.Open(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When it has an end timestamp", func() {
			ended := time.Now()
			session := model.Session{ID: "s-2", HostHandle: "host", StartedAt: ended.Add(-time.Hour), EndedAt: &ended}

			convey.Convey("Then it reports closed", func() {
				convey.So(session.Open(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestViewPointer(t *testing.T) {
	convey.Convey("Given a view pointer", t, func() {
		convey.Convey("When the message ref is set", func() {
			pointer := model.ViewPointer{SurfaceKey: "board:t2", ChannelRef: "chan-1", MessageRef: "msg-1"}

			convey.Convey("Then it is bound", func() {
				convey.So(pointer.Bound(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the message ref was cleared", func() {
			pointer := model.ViewPointer{SurfaceKey: "board:t2", ChannelRef: "chan-1"}

			convey.Convey("Then it is unbound even with a channel ref", func() {
				convey.So(pointer.Bound(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestSortParticipants(t *testing.T) {
	convey.Convey("Given session participant rows", t, func() {
		convey.Convey("When sorting for the close report", func() {
			rows := []model.ParticipantSummary{
				{Handle: "carol", Coins: 100, Points: 5},
				{Handle: "bob", Coins: 500, Points: 1},
				{Handle: "alice", Coins: 100, Points: 50},
				{Handle: "dave", Coins: 100, Points: 50},
			}
			model.SortParticipants(rows)

			convey.Convey("Then coins rank first", func() {
				convey.So(rows[0].Handle, convey.ShouldEqual, "bob")
			})

			convey.Convey("Then points break coin ties", func() {
				convey.So(rows[1].Handle, convey.ShouldEqual, "alice")
				convey.So(rows[3].Handle, convey.ShouldEqual, "carol")
			})

			convey.Convey("Then handles break full ties deterministically", func() {
				convey.So(rows[1].Handle, convey.ShouldEqual, "alice")
				convey.So(rows[2].Handle, convey.ShouldEqual, "dave")
			})
		})

		convey.Convey("When the slice is empty", func() {
			var rows []model.ParticipantSummary

			convey.Convey("Then sorting is a no-op", func() {
				convey.So(func() { model.SortParticipants(rows) }, convey.ShouldNotPanic)
			})
		})
	})
}
