package net

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHubRelaysWrites(t *testing.T) {
	_, url := startHub(t)
	ctx := context.Background()
	alice := dial(t, url)
	bob := dial(t, url)

	aliceGot := make(chan string, 4)
	bobGot := make(chan string, 4)
	if _, err := alice.Subscribe(ctx, "strokes/current", func(v []byte) { aliceGot <- string(v) }); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Subscribe(ctx, "strokes/current", func(v []byte) { bobGot <- string(v) }); err != nil {
		t.Fatal(err)
	}

	// Whether bob's subscribe lands before or after the write, he sees the
	// value exactly once: as a write or as the current value.
	if err := alice.Write(ctx, "strokes/current", []byte(`{"n":1}`)); err != nil {
		t.Fatal(err)
	}
	if v := recv(t, aliceGot); v != `{"n":1}` {
		t.Errorf("alice got %q, want her own write echoed", v)
	}
	if v := recv(t, bobGot); v != `{"n":1}` {
		t.Errorf("bob got %q", v)
	}
}

func TestHubDeliversCurrentValueOnSubscribe(t *testing.T) {
	hub, url := startHub(t)
	ctx := context.Background()
	if err := hub.Slots().Write("p", []byte(`[1,2]`)); err != nil {
		t.Fatal(err)
	}

	c := dial(t, url)
	got := make(chan string, 2)
	if _, err := c.Subscribe(ctx, "p", func(v []byte) { got <- string(v) }); err != nil {
		t.Fatal(err)
	}
	if v := recv(t, got); v != `[1,2]` {
		t.Errorf("initial value = %q, want [1,2]", v)
	}
}

func TestClientLaterSubscriberGetsCurrentValue(t *testing.T) {
	hub, url := startHub(t)
	ctx := context.Background()
	if err := hub.Slots().Write("p", []byte(`"v1"`)); err != nil {
		t.Fatal(err)
	}

	c := dial(t, url)
	first := make(chan string, 2)
	if _, err := c.Subscribe(ctx, "p", func(v []byte) { first <- string(v) }); err != nil {
		t.Fatal(err)
	}
	recv(t, first)

	second := make(chan string, 2)
	if _, err := c.Subscribe(ctx, "p", func(v []byte) { second <- string(v) }); err != nil {
		t.Fatal(err)
	}
	if v := recv(t, second); v != `"v1"` {
		t.Errorf("second subscriber initial value = %q, want \"v1\"", v)
	}

	hub.Slots().Write("p", []byte(`"v2"`))
	if v := recv(t, second); v != `"v2"` {
		t.Errorf("second subscriber got %q, want the later write", v)
	}
	if v := recv(t, first); v != `"v2"` {
		t.Errorf("first subscriber got %q, want the later write", v)
	}
}

func TestClientUnsubscribe(t *testing.T) {
	hub, url := startHub(t)
	ctx := context.Background()
	c := dial(t, url)

	got := make(chan string, 4)
	cancel, err := c.Subscribe(ctx, "p", func(v []byte) { got <- string(v) })
	if err != nil {
		t.Fatal(err)
	}
	c.Write(ctx, "p", []byte(`1`))
	recv(t, got)

	cancel()
	hub.Slots().Write("p", []byte(`2`))
	expectNothing(t, got)
}

func TestClientClose(t *testing.T) {
	_, url := startHub(t)
	c := dial(t, url)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	<-c.Done()
	if err := c.Write(context.Background(), "p", []byte(`1`)); err != ErrHubClosed {
		t.Errorf("Write after Close = %v, want ErrHubClosed", err)
	}
}
