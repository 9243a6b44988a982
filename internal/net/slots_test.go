package net

import (
	"context"
	"errors"
	"testing"
	"time"
)

const waitFor = 2 * time.Second

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for delivery")
		return ""
	}
}

func expectNothing(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected delivery %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlotsLastWriteWins(t *testing.T) {
	s := NewSlots()
	defer s.Close()

	s.Write("a", []byte("1"))
	s.Write("a", []byte("2"))
	if v, ok := s.Read("a"); !ok || string(v) != "2" {
		t.Errorf("Read(a) = %q, %v; want 2", v, ok)
	}
	if _, ok := s.Read("b"); ok {
		t.Error("Read(b) should be empty")
	}
}

func TestSlotsSubscribeDeliversCurrentThenWrites(t *testing.T) {
	s := NewSlots()
	defer s.Close()
	s.Write("p", []byte("first"))

	got := make(chan string, 8)
	cancel, err := s.Subscribe("p", func(v []byte) { got <- string(v) })
	if err != nil {
		t.Fatal(err)
	}

	if v := recv(t, got); v != "first" {
		t.Errorf("initial delivery = %q, want first", v)
	}
	s.Write("p", []byte("second"))
	s.Write("other", []byte("x"))
	s.Write("p", []byte("third"))
	if v := recv(t, got); v != "second" {
		t.Errorf("delivery = %q, want second", v)
	}
	if v := recv(t, got); v != "third" {
		t.Errorf("delivery = %q, want third", v)
	}

	cancel()
	cancel()
	s.Write("p", []byte("after"))
	expectNothing(t, got)
}

func TestSlotsSlowSubscriberDoesNotBlockWriter(t *testing.T) {
	s := NewSlots()
	defer s.Close()

	release := make(chan struct{})
	if _, err := s.Subscribe("p", func([]byte) { <-release }); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		for range 100 {
			s.Write("p", []byte("v"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("writer blocked on a slow subscriber")
	}
	close(release)
}

func TestSlotsClosed(t *testing.T) {
	s := NewSlots()
	s.Close()
	s.Close()
	if err := s.Write("p", nil); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Write after Close = %v, want ErrHubClosed", err)
	}
	if _, err := s.Subscribe("p", func([]byte) {}); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrHubClosed", err)
	}
}

func TestLocalRespectsContext(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Write(ctx, "p", []byte("1")); !errors.Is(err, context.Canceled) {
		t.Errorf("Write = %v, want context.Canceled", err)
	}
	if _, err := l.Subscribe(ctx, "p", func([]byte) {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Subscribe = %v, want context.Canceled", err)
	}
}

func TestLocalFanOut(t *testing.T) {
	l := NewLocal()
	defer l.Close()
	ctx := context.Background()

	a := make(chan string, 4)
	b := make(chan string, 4)
	if _, err := l.Subscribe(ctx, "p", func(v []byte) { a <- string(v) }); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Subscribe(ctx, "p", func(v []byte) { b <- string(v) }); err != nil {
		t.Fatal(err)
	}
	if err := l.Write(ctx, "p", []byte(`"hello"`)); err != nil {
		t.Fatal(err)
	}
	if v := recv(t, a); v != `"hello"` {
		t.Errorf("a got %q", v)
	}
	if v := recv(t, b); v != `"hello"` {
		t.Errorf("b got %q", v)
	}
}
