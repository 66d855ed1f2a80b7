package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rabbitmq/amqp091-go"
)

type ackCall struct {
	Tag     uint64
	Ack     bool
	Requeue bool
}

type fakeAcker struct {
	mu    sync.Mutex
	calls []ackCall
}

func (f *fakeAcker) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ackCall{Tag: tag, Ack: true})
	return nil
}

func (f *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ackCall{Tag: tag, Requeue: requeue})
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func delivery(acker *fakeAcker, tag uint64, body []byte, redelivered bool) amqp091.Delivery {
	return amqp091.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: body, Redelivered: redelivered}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestConsume(t *testing.T) {
	acker := &fakeAcker{}
	ch := make(chan amqp091.Delivery, 5)
	ch <- delivery(acker, 1, mustJSON(t, NewChange(OpCreated, "3", "10")), false)
	ch <- delivery(acker, 2, []byte("{not json"), false)
	ch <- delivery(acker, 3, mustJSON(t, Change{Op: "renamed"}), false)
	ch <- delivery(acker, 4, mustJSON(t, NewChange(OpDeleted, "7", "fail")), false)
	ch <- delivery(acker, 5, mustJSON(t, NewChange(OpDeleted, "7", "fail")), true)
	close(ch)

	var handled []string
	err := Consume(context.Background(), ch, func(_ context.Context, c Change) error {
		handled = append(handled, c.TransactionID)
		if c.TransactionID == "fail" {
			return errors.New("cache down")
		}
		return nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}

	if diff := cmp.Diff([]string{"10", "fail", "fail"}, handled); diff != "" {
		t.Errorf("handled mismatch (-want +got):\n%s", diff)
	}
	want := []ackCall{
		{Tag: 1, Ack: true},
		{Tag: 2},
		{Tag: 3},
		{Tag: 4, Requeue: true},
		{Tag: 5},
	}
	if diff := cmp.Diff(want, acker.calls); diff != "" {
		t.Errorf("ack mismatch (-want +got):\n%s", diff)
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Consume(ctx, make(chan amqp091.Delivery), func(context.Context, Change) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestChangeFromJSON(t *testing.T) {
	in := NewChange(OpUpdated, "3", "41")
	got, err := ChangeFromJSON(mustJSON(t, in))
	if err != nil {
		t.Fatalf("ChangeFromJSON: %v", err)
	}
	if got.Op != OpUpdated || got.UserID != "3" || got.TransactionID != "41" || !got.At.Equal(in.At) {
		t.Errorf("got %+v, want %+v", got, in)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), NewChange(OpCreated, "1", "2")); err != nil {
		t.Errorf("Publish: %v", err)
	}
}
