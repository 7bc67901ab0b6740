package events_test

import (
	"testing"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/events"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out node events to receivers.")
	{
		evts := events.New()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if evts.Acquire("one") != ch1 {
			t.Fatalf("\t%s\tShould get back the same channel for an id.", failed)
		}
		t.Logf("\t%s\tShould get back the same channel for an id.", success)

		evts.Send("state: AddTransaction: pool[1]")

		for i, ch := range []<-chan string{ch1, ch2} {
			if msg := <-ch; msg != "state: AddTransaction: pool[1]" {
				t.Fatalf("\t%s\tShould receive the event on channel %d: %q", failed, i, msg)
			}
		}
		t.Logf("\t%s\tShould receive the event on every channel.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a channel: %s", failed, err)
		}
		if _, ok := <-ch1; ok {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould not release a channel twice.", failed)
		}
		t.Logf("\t%s\tShould be able to release a channel.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full channel.", success)

		evts.Shutdown()
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould remove every channel on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every channel on shutdown.", success)
	}
}
