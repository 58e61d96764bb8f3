package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(nil)
	})

	drain := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(bus.Drain(ctx)).To(Succeed())
	}

	It("delivers to typed and wildcard handlers", func() {
		var (
			mu   sync.Mutex
			seen []string
		)
		record := func(tag string) events.Handler {
			return func(_ context.Context, ev events.Event) error {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, tag+":"+ev.EventType())
				return nil
			}
		}
		bus.Subscribe(events.EventTypeClockedIn, record("typed"))
		bus.Subscribe(events.Wildcard, record("all"))

		Expect(bus.Publish(context.Background(), events.NewClockedInEvent("u1", "r1", "2024-03-09", "09:00"))).To(Succeed())
		Expect(bus.Publish(context.Background(), events.NewLeaveSubmittedEvent("l1", "u1", "Pending"))).To(Succeed())
		drain()

		Expect(seen).To(ConsistOf(
			"typed:attendance.clocked_in",
			"all:attendance.clocked_in",
			"all:leave.submitted",
		))
	})

	It("survives failing and panicking handlers", func() {
		bus.Subscribe(events.EventTypeLeaveDecided, func(context.Context, events.Event) error {
			return errors.New("boom")
		})
		bus.Subscribe(events.EventTypeLeaveDecided, func(context.Context, events.Event) error {
			panic("boom")
		})

		Expect(bus.Publish(context.Background(), events.NewLeaveDecidedEvent("l1", "admin", "Approved"))).To(Succeed())
		drain()
	})

	It("returns handler errors from synchronous publishing", func() {
		bus.Subscribe(events.EventTypeClockedOut, func(context.Context, events.Event) error {
			return errors.New("boom")
		})

		err := bus.PublishSync(context.Background(), events.NewClockedOutEvent("u1", "r1", "2024-03-09", "17:30", "08:30"))
		Expect(err).To(MatchError(ContainSubstring("attendance.clocked_out")))
	})

	It("keeps handlers running after the request context ends", func() {
		done := make(chan error, 1)
		bus.Subscribe(events.EventTypeClockedIn, func(ctx context.Context, _ events.Event) error {
			done <- ctx.Err()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(bus.Publish(ctx, events.NewClockedInEvent("u1", "r1", "2024-03-09", "09:00"))).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})
})
