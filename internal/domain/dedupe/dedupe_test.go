package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/abakedjoetato/luxqueue/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When creating a deduper with custom options", func() {
			d := dedupe.NewInMemoryDeduper(
				dedupe.WithMaxSize(100),
			)

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording events", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the event is new", func() {
				seen := d.SeenAndRecord(context.Background(), "evt-1")

				Convey("Then it should return false and record the event", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the event was already seen", func() {
				d.SeenAndRecord(context.Background(), "evt-1")

				seen := d.SeenAndRecord(context.Background(), "evt-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple events are recorded", func() {
				events := []string{"evt-1", "evt-2", "evt-3", "evt-4", "evt-5"}

				for _, event := range events {
					seen := d.SeenAndRecord(context.Background(), event)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all events should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(events)))

					for _, event := range events {
						seen := d.SeenAndRecord(context.Background(), event)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording events", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the event exists", func() {
				d.SeenAndRecord(context.Background(), "evt-1")
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), "evt-1")

				Convey("Then it should be removed", func() {
					So(d.Size(), ShouldEqual, 0)

					seen := d.SeenAndRecord(context.Background(), "evt-1")
					So(seen, ShouldBeFalse)
				})
			})

			Convey("And the event doesn't exist", func() {
				d.Unrecord(context.Background(), "nonexistent")

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})

			Convey("And multiple events are unrecorded", func() {
				events := []string{"evt-1", "evt-2", "evt-3"}

				for _, event := range events {
					d.SeenAndRecord(context.Background(), event)
				}
				So(d.Size(), ShouldEqual, int64(len(events)))

				for _, event := range events {
					d.Unrecord(context.Background(), event)
				}

				Convey("Then all events should be removed", func() {
					So(d.Size(), ShouldEqual, 0)

					for _, event := range events {
						seen := d.SeenAndRecord(context.Background(), event)
						So(seen, ShouldBeFalse)
					}
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				events := []string{"evt-1", "evt-2", "evt-3"}
				for _, event := range events {
					seen := d.SeenAndRecord(context.Background(), event)
					So(seen, ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), "evt-4")

				Convey("Then the oldest id is forgotten and capacity holds", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// evt-1 was evicted, so re-recording it is a miss and
					// evicts the then-oldest in turn. Capacity never grows.
					So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					So(d.SeenAndRecord(context.Background(), "evt-2"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// evt-4 is still within the newest three, so it is a hit.
					So(d.SeenAndRecord(context.Background(), "evt-4"), ShouldBeTrue)
					So(d.Size(), ShouldEqual, 3)
				})
			})

			Convey("And an unrecorded id is re-recorded after wrapping", func() {
				// Unrecord must free its ring slot; otherwise the wrap
				// would charge an eviction for an entry already gone.
				So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeFalse)
				So(d.SeenAndRecord(context.Background(), "evt-2"), ShouldBeFalse)
				d.Unrecord(context.Background(), "evt-1")

				So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeFalse)

				Convey("Then the re-recorded id is still seen", func() {
					So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeTrue)
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many events are recorded", func() {
				const numEvents = 1000
				for i := 0; i < numEvents; i++ {
					eventID := fmt.Sprintf("evt-%d", i)
					seen := d.SeenAndRecord(context.Background(), eventID)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all events should be recorded without eviction", func() {
					So(d.Size(), ShouldEqual, int64(numEvents))

					for i := 0; i < numEvents; i++ {
						eventID := fmt.Sprintf("evt-%d", i)
						seen := d.SeenAndRecord(context.Background(), eventID)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const eventsPerGoroutine = 100

		Convey("When multiple goroutines record events concurrently", func() {
			var wg sync.WaitGroup

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < eventsPerGoroutine; j++ {
						eventID := fmt.Sprintf("evt-%d-%d", goroutineID, j)
						d.SeenAndRecord(context.Background(), eventID)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all events should be recorded successfully", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*eventsPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord events concurrently", func() {
			const numEvents = 500
			for i := 0; i < numEvents; i++ {
				eventID := fmt.Sprintf("evt-%d", i)
				d.SeenAndRecord(context.Background(), eventID)
			}

			So(d.Size(), ShouldEqual, int64(numEvents))

			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < numEvents/numGoroutines; j++ {
						eventID := fmt.Sprintf("evt-%d", goroutineID*(numEvents/numGoroutines)+j)
						d.Unrecord(context.Background(), eventID)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all events should be unrecorded successfully", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording empty string", func() {
			d := dedupe.NewInMemoryDeduper()

			seen := d.SeenAndRecord(context.Background(), "")

			Convey("Then it should handle empty string", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), "")
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When recording very long strings", func() {
			d := dedupe.NewInMemoryDeduper()

			longString := strings.Repeat("a", 10000)
			seen := d.SeenAndRecord(context.Background(), longString)

			Convey("Then it should handle long strings", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), longString)
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When using nil context", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should not panic", func() {
				So(func() { d.SeenAndRecord(nil, "evt-1") }, ShouldNotPanic)
				So(func() { d.Unrecord(nil, "evt-1") }, ShouldNotPanic)
			})
		})

		Convey("When using very small max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			Convey("And adding multiple events", func() {
				So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				// Second event evicts the first
				So(d.SeenAndRecord(context.Background(), "evt-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				// First event was evicted, so it records again
				So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				So(d.SeenAndRecord(context.Background(), "evt-1"), ShouldBeTrue)
			})
		})

		Convey("When using negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				const numEvents = 1000
				for i := 0; i < numEvents; i++ {
					eventID := fmt.Sprintf("evt-%d", i)
					seen := d.SeenAndRecord(context.Background(), eventID)
					So(seen, ShouldBeFalse)
				}

				So(d.Size(), ShouldEqual, int64(numEvents))
			})
		})
	})
}

func TestDedupeOptions(t *testing.T) {
	Convey("Given dedupe options", t, func() {
		Convey("When using WithMaxSize", func() {
			Convey("Then it should set the max size", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(500))
				So(d, ShouldNotBeNil)
			})

			Convey("And when max size is zero", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
				So(d, ShouldNotBeNil)
			})

			Convey("And when max size is negative", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-100))
				So(d, ShouldNotBeNil)
			})
		})
	})
}
