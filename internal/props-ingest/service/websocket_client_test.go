package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []events.SupplierEnvelope
	done chan struct{}
	want int
}

func (s *recordingSink) Publish(_ context.Context, env events.SupplierEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, env)
	if len(s.got) == s.want {
		close(s.done)
	}
	return nil
}

func TestWSClientForwardsFrames(t *testing.T) {
	frames := []string{
		`{"type":"prop","prop":{"game_id":"g1","player_id":"p1","stat_category":"points","line":"24.5","over_odds":"1.9","under_odds":"1.9","version":1}}`,
		`garbage`,
		`{"type":"stat","stat":{"game_id":"g1","player_id":"p1","stat_category":"points","actual_value":"30"}}`,
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		// mantém aberto até o cliente fechar
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sink := &recordingSink{done: make(chan struct{}), want: 2}
	invalid := 0
	var mu sync.Mutex
	c := &WSClient{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		Log:       zap.NewNop(),
		Sink:      sink,
		Reconnect: 10 * time.Millisecond,
		OnInvalid: func() { mu.Lock(); invalid++; mu.Unlock() },
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { c.Start(ctx); close(stopped) }()

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for frames")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.got[0].Type != events.EnvelopeProp || sink.got[0].Prop.Line != "24.5" {
		t.Errorf("first frame = %+v", sink.got[0])
	}
	if sink.got[1].Type != events.EnvelopeStat || sink.got[1].Stat.ActualValue != "30" {
		t.Errorf("second frame = %+v", sink.got[1])
	}
	mu.Lock()
	defer mu.Unlock()
	if invalid != 1 {
		t.Errorf("invalid = %d, want 1", invalid)
	}
}
