package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	eventqueue "github.com/abakedjoetato/luxqueue/internal/adapters/mq/queue"
	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	service "github.com/abakedjoetato/luxqueue/internal/app"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/engine"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
	"github.com/abakedjoetato/luxqueue/internal/resolver"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithQueueSize(1000),
			service.WithDedupeSize(500),
			service.WithWatchInterval(50*time.Millisecond),
			service.WithResortInterval(50*time.Millisecond),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And the service should be running", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When running a review cycle", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			first, err := svc.Submit(ctx, model.NewSubmission{
				SubmitterID: "user-1", SubmitterName: "DJ Nova", Artist: "Nova", Song: "Afterglow",
			})
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, model.NewSubmission{
				SubmitterID: "user-2", SubmitterName: "Echo", Artist: "Echo", Song: "Driftwood",
			})
			So(err, ShouldBeNil)
			third, err := svc.Submit(ctx, model.NewSubmission{
				SubmitterID: "user-3", SubmitterName: "Mara", Artist: "Mara", Song: "Undertow",
			})
			So(err, ShouldBeNil)

			_, err = svc.Move(ctx, third.PublicID, model.TierT1)
			So(err, ShouldBeNil)

			Convey("Then the paid tier should dispatch first", func() {
				taken, err := svc.TakeNext(ctx)
				So(err, ShouldBeNil)
				So(taken.PublicID, ShouldEqual, third.PublicID)
				So(taken.Tier, ShouldEqual, model.TierT1)

				next, err := svc.TakeNext(ctx)
				So(err, ShouldBeNil)
				So(next.PublicID, ShouldEqual, first.PublicID)

				last, err := svc.TakeNext(ctx)
				So(err, ShouldBeNil)
				So(last.PublicID, ShouldEqual, second.PublicID)

				_, err = svc.TakeNext(ctx)
				So(errors.Is(err, resolver.ErrEmpty), ShouldBeTrue)
			})

			Convey("And the queue views should reflect the tiers", func() {
				standard, err := svc.Queue(ctx, model.TierStandard)
				So(err, ShouldBeNil)
				So(len(standard), ShouldEqual, 2)
				So(standard[0].PublicID, ShouldEqual, first.PublicID)
				So(standard[1].PublicID, ShouldEqual, second.PublicID)

				page, err := svc.QueuePage(ctx, model.TierStandard, 0, 1)
				So(err, ShouldBeNil)
				So(len(page.Items), ShouldEqual, 1)
				So(page.Total, ShouldEqual, 2)
				So(page.PageCount(), ShouldEqual, 2)

				mine, err := svc.MyQueue(ctx, "user-3")
				So(err, ShouldBeNil)
				So(len(mine), ShouldEqual, 1)
				So(mine[0].Tier, ShouldEqual, model.TierT1)
			})

			Convey("And clearing standard should leave paid tiers intact", func() {
				count, err := svc.ClearStandard(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 2)

				paid, err := svc.Queue(ctx, model.TierT1)
				So(err, ShouldBeNil)
				So(len(paid), ShouldEqual, 1)

				counts, err := svc.TierCounts(ctx)
				So(err, ShouldBeNil)
				So(counts[model.TierStandard], ShouldEqual, 0)
				So(counts[model.TierT1], ShouldEqual, 1)
			})
		})

		Convey("When processing live events end-to-end", func() {
			err := svc.Start(ctx)
			So(err, ShouldBeNil)

			// Give service time to start
			time.Sleep(100 * time.Millisecond)

			sub, err := svc.Submit(ctx, model.NewSubmission{
				SubmitterID:      "user-1",
				SubmitterName:    "DJ Nova",
				Artist:           "Nova",
				Song:             "Afterglow",
				EngagementHandle: "fan_one",
			})
			So(err, ShouldBeNil)

			// The host connects, then a fan engages.
			events := []model.LiveEvent{
				{EventID: "evt-connect", Kind: model.EventConnect, Handle: "host_live", TS: time.Now()},
				{EventID: "evt-join", Kind: model.EventJoin, Handle: "fan_one", TS: time.Now()},
				{EventID: "evt-like-1", Kind: model.EventLike, Handle: "fan_one", TS: time.Now()},
				{EventID: "evt-like-2", Kind: model.EventLike, Handle: "fan_one", TS: time.Now()},
				{EventID: "evt-comment", Kind: model.EventComment, Handle: "fan_one", Text: "play it", TS: time.Now()},
			}
			for _, event := range events {
				duplicate, err := svc.IngestEvent(ctx, event)
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
			}

			// Give the pump time to process
			time.Sleep(300 * time.Millisecond)

			Convey("Then a session should be open", func() {
				sess, open := svc.CurrentSession()
				So(open, ShouldBeTrue)
				So(sess.HostHandle, ShouldEqual, "host_live")
			})

			Convey("And interactions should score the linked submission", func() {
				got, err := svc.Submission(ctx, sub.PublicID)
				So(err, ShouldBeNil)
				So(got.InteractionScore, ShouldEqual, 4.0) // like + like + comment
				So(got.TotalScore, ShouldEqual, got.WatchScore+got.InteractionScore)
			})

			Convey("And a replayed event should change nothing", func() {
				duplicate, err := svc.IngestEvent(ctx, events[2])
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeTrue)

				time.Sleep(200 * time.Millisecond)

				got, err := svc.Submission(ctx, sub.PublicID)
				So(err, ShouldBeNil)
				So(got.InteractionScore, ShouldEqual, 4.0)
			})

			Convey("And a qualifying gift should reward the linked submission", func() {
				err := svc.LinkIdentity(ctx, "user-1", "fan_one")
				So(err, ShouldBeNil)

				_, err = svc.IngestEvent(ctx, model.LiveEvent{
					EventID: "evt-gift", Kind: model.EventGift, Handle: "fan_one",
					Coins: 2000, GiftName: "galaxy", TS: time.Now(),
				})
				So(err, ShouldBeNil)

				// Mid-streak ticks carry no final value and must be ignored.
				_, err = svc.IngestEvent(ctx, model.LiveEvent{
					EventID: "evt-streak", Kind: model.EventGift, Handle: "fan_one",
					Coins: 500, GiftName: "rose", Streak: true, TS: time.Now(),
				})
				So(err, ShouldBeNil)

				time.Sleep(300 * time.Millisecond)

				got, err := svc.Submission(ctx, sub.PublicID)
				So(err, ShouldBeNil)
				So(got.Tier, ShouldEqual, model.TierT2)
				So(got.InteractionScore, ShouldEqual, 2004.0)

				ident, err := svc.IdentityStats(ctx, "fan_one")
				So(err, ShouldBeNil)
				So(ident.LinkedSubmitterID, ShouldEqual, "user-1")
				So(ident.LifetimeCoins, ShouldEqual, 2000)
				So(ident.Likes, ShouldEqual, 2)
				So(ident.Comments, ShouldEqual, 1)

				Convey("And closing the session should produce the summary", func() {
					summary, err := svc.CloseSession(ctx)
					So(err, ShouldBeNil)
					So(summary.Session.HostHandle, ShouldEqual, "host_live")
					So(summary.TotalCoins, ShouldEqual, 2000)
					So(summary.EventCounts[model.EventLike], ShouldEqual, 2)
					So(summary.EventCounts[model.EventComment], ShouldEqual, 1)
					So(summary.EventCounts[model.EventGift], ShouldEqual, 1)
					So(len(summary.Participants), ShouldEqual, 1)
					So(summary.Participants[0].Handle, ShouldEqual, "fan_one")
					So(summary.Participants[0].Coins, ShouldEqual, 2000)

					_, open := svc.CurrentSession()
					So(open, ShouldBeFalse)
				})
			})

			Convey("And a disconnect event should close the session", func() {
				_, err := svc.IngestEvent(ctx, model.LiveEvent{
					EventID: "evt-disconnect", Kind: model.EventDisconnect,
					Handle: "host_live", TS: time.Now(),
				})
				So(err, ShouldBeNil)

				time.Sleep(300 * time.Millisecond)

				_, open := svc.CurrentSession()
				So(open, ShouldBeFalse)
			})
		})

		Convey("When handling service lifecycle", func() {
			Convey("And starting and stopping multiple times", func() {
				err := svc.Start(ctx)
				So(err, ShouldBeNil)

				// Give it time to start
				time.Sleep(100 * time.Millisecond)

				svc.Stop()

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)

				// Start again
				err = svc.Start(ctx)
				So(err, ShouldBeNil)

				stats = svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})
	})
}

func TestServiceSurfaces(t *testing.T) {
	Convey("Given a service with fast refresh", t, func() {
		svc := service.New(
			service.WithRefreshTick(20*time.Millisecond),
			service.WithPublishSpacing(time.Millisecond),
			service.WithPageSize(2),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When registering a surface", func() {
			err := svc.RegisterSurface(ctx, "review-room:standard", model.TierStandard, "chan-main", true)
			So(err, ShouldBeNil)

			Convey("Then it should appear in the surface list", func() {
				surfaces, err := svc.Surfaces(ctx)
				So(err, ShouldBeNil)
				So(len(surfaces), ShouldEqual, 1)
				So(surfaces[0].Key, ShouldEqual, "review-room:standard")
				So(surfaces[0].Tier, ShouldEqual, model.TierStandard)
				So(surfaces[0].HasControls, ShouldBeTrue)
			})

			Convey("And the first tick should bind it to a message", func() {
				time.Sleep(200 * time.Millisecond)

				surfaces, err := svc.Surfaces(ctx)
				So(err, ShouldBeNil)
				So(len(surfaces), ShouldEqual, 1)
				So(surfaces[0].Bound, ShouldBeTrue)
				So(surfaces[0].State, ShouldEqual, refresh.StateActive)
			})

			Convey("And a queue change should republish it", func() {
				time.Sleep(200 * time.Millisecond)

				_, err := svc.Submit(ctx, model.NewSubmission{
					SubmitterID: "user-1", SubmitterName: "DJ Nova", Artist: "Nova", Song: "Afterglow",
				})
				So(err, ShouldBeNil)

				time.Sleep(200 * time.Millisecond)

				surfaces, err := svc.Surfaces(ctx)
				So(err, ShouldBeNil)
				So(surfaces[0].State, ShouldEqual, refresh.StateActive)
				So(surfaces[0].Page, ShouldEqual, 0)
			})

			Convey("And paging should persist", func() {
				err := svc.SetSurfacePage(ctx, "review-room:standard", 1)
				So(err, ShouldBeNil)

				surfaces, err := svc.Surfaces(ctx)
				So(err, ShouldBeNil)
				So(surfaces[0].Page, ShouldEqual, 1)
			})

			Convey("And unregistering should remove it", func() {
				err := svc.UnregisterSurface(ctx, "review-room:standard")
				So(err, ShouldBeNil)

				surfaces, err := svc.Surfaces(ctx)
				So(err, ShouldBeNil)
				So(len(surfaces), ShouldEqual, 0)
			})
		})

		Convey("When operating on an unknown surface", func() {
			err := svc.SetSurfacePage(ctx, "missing", 2)

			Convey("Then it should report the surface as unknown", func() {
				So(errors.Is(err, refresh.ErrUnknownSurface), ShouldBeTrue)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent operations", t, func() {
		svc := service.New(
			service.WithQueueSize(2000),
			service.WithDedupeSize(5000),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		_, err = svc.OpenSession(ctx, "host_live")
		So(err, ShouldBeNil)

		Convey("When multiple goroutines ingest events concurrently", func() {
			numGoroutines := 10
			eventsPerGoroutine := 50
			done := make(chan bool, numGoroutines)

			for i := 0; i < numGoroutines; i++ {
				go func(goroutineID int) {
					handle := fmt.Sprintf("fan_%02d", goroutineID)
					for j := 0; j < eventsPerGoroutine; j++ {
						kind := model.EventLike
						if j%2 == 1 {
							kind = model.EventComment
						}
						_, _ = svc.IngestEvent(ctx, model.LiveEvent{
							EventID: fmt.Sprintf("concurrent-%02d-%02d", goroutineID, j),
							Kind:    kind,
							Handle:  handle,
							TS:      time.Now(),
						})
					}
					done <- true
				}(i)
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			// Give the pump time to drain
			time.Sleep(2 * time.Second)

			Convey("Then every handle should have a complete lifetime record", func() {
				for i := 0; i < numGoroutines; i++ {
					ident, err := svc.IdentityStats(ctx, fmt.Sprintf("fan_%02d", i))
					So(err, ShouldBeNil)
					So(ident.Likes, ShouldEqual, 25)
					So(ident.Comments, ShouldEqual, 25)
					So(ident.LifetimePoints, ShouldEqual, 75)
				}
			})

			Convey("And the service should still report healthy stats", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["sessionOpen"], ShouldEqual, true)
			})
		})

		Convey("When goroutines query while events flow", func() {
			numGoroutines := 20
			done := make(chan bool, numGoroutines)
			errs := make(chan error, numGoroutines*30) // Buffer for potential errors

			for i := 0; i < numGoroutines; i++ {
				go func(goroutineID int) {
					for j := 0; j < 10; j++ {
						_, _ = svc.IngestEvent(ctx, model.LiveEvent{
							EventID: fmt.Sprintf("mixed-%02d-%02d", goroutineID, j),
							Kind:    model.EventLike,
							Handle:  fmt.Sprintf("fan_%02d", goroutineID),
							TS:      time.Now(),
						})

						if _, err := svc.Queue(ctx, model.TierStandard); err != nil {
							errs <- err
							continue
						}
						if _, err := svc.TierCounts(ctx); err != nil {
							errs <- err
							continue
						}
						if stats := svc.GetStats(); stats == nil {
							errs <- fmt.Errorf("stats is nil")
						}
					}
					done <- true
				}(i)
			}

			// Wait for all goroutines to complete
			for i := 0; i < numGoroutines; i++ {
				<-done
			}

			Convey("Then all queries should succeed", func() {
				select {
				case err := <-errs:
					So(err, ShouldBeNil)
				default:
					// No errors, test passed
					So(true, ShouldBeTrue)
				}
			})
		})
	})
}

func TestServiceErrorHandling(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithQueueSize(10),
			service.WithDedupeSize(5),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When querying entities that do not exist", func() {
			_, err := svc.Submission(ctx, "999999")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = svc.IdentityStats(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When linking a handle that has never been on the feed", func() {
			err := svc.LinkIdentity(ctx, "user-1", "ghost")
			So(errors.Is(err, repository.ErrHandleNotObserved), ShouldBeTrue)
		})

		Convey("When unlinking a pair that was never linked", func() {
			err := svc.UnlinkIdentity(ctx, "user-1", "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When managing sessions out of order", func() {
			_, err := svc.CloseSession(ctx)
			So(errors.Is(err, engine.ErrNoOpenSession), ShouldBeTrue)

			_, err = svc.OpenSession(ctx, "host_live")
			So(err, ShouldBeNil)

			_, err = svc.OpenSession(ctx, "host_other")
			So(errors.Is(err, engine.ErrSessionOpen), ShouldBeTrue)
		})

		Convey("When registering a surface with bad arguments", func() {
			err := svc.RegisterSurface(ctx, "", model.TierStandard, "chan-1", false)
			So(err, ShouldNotBeNil)

			err = svc.RegisterSurface(ctx, "surface-1", model.Tier("gold"), "chan-1", false)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a stopped service", t, func() {
		svc := service.New()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("When ingesting after shutdown", func() {
			duplicate, err := svc.IngestEvent(ctx, model.LiveEvent{
				EventID: "late-event", Kind: model.EventLike, Handle: "fan_one", TS: time.Now(),
			})

			Convey("Then the queue should report closed", func() {
				So(errors.Is(err, eventqueue.ErrClosed), ShouldBeTrue)
				So(duplicate, ShouldBeFalse)
			})

			Convey("And the event id should be released for retry", func() {
				duplicate, err := svc.IngestEvent(ctx, model.LiveEvent{
					EventID: "late-event", Kind: model.EventLike, Handle: "fan_one", TS: time.Now(),
				})
				So(errors.Is(err, eventqueue.ErrClosed), ShouldBeTrue)
				So(duplicate, ShouldBeFalse)
			})
		})
	})
}
