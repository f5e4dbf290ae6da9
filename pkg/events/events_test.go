package events

import (
	"context"
	"errors"
	"testing"
)

type recorder struct {
	got    []string
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e.Name)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiPublishesToAll(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	m := Multi{a, b}

	err := m.Publish(context.Background(), Event{Name: CarCreated})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish error = %v, want %v", err, boom)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("publishers got %v and %v, want one event each", a.got, b.got)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close did not reach every publisher")
	}
}

func TestNop(t *testing.T) {
	p := Nop()
	if err := p.Publish(context.Background(), Event{Name: CarDeleted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
