package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playperu/superadmin/internal/events"
	"github.com/playperu/superadmin/internal/sessions"
)

func TestHandleEventsStreamsSessionChanges(t *testing.T) {
	broker := events.NewBroker()
	srv := httptest.NewServer(handleEvents(broker))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for broker.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	broker.Publish(events.Event{Type: events.SessionEnded, Session: &sessions.Session{ID: "s1"}})

	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if line != "event: session\n" {
		t.Fatalf("event line = %q", line)
	}
	line, err = rd.ReadString('\n')
	if err != nil {
		t.Fatalf("reading data: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") || !strings.Contains(line, `"session.ended"`) || !strings.Contains(line, `"s1"`) {
		t.Fatalf("data line = %q", line)
	}
}
