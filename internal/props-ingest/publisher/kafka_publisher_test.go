package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestPublishRoutesByType(t *testing.T) {
	props, stats := &fakeWriter{}, &fakeWriter{}
	kinds := map[string]int{}
	p := NewKafkaPublisher(props, stats, zap.NewNop())
	p.OnPublished = func(kind string) { kinds[kind]++ }

	prop := events.SupplierEnvelope{Type: events.EnvelopeProp, Prop: &events.PropUpdate{
		GameID: "g1", PlayerID: "p1", StatCategory: "points", Line: "24.5", OverOdds: "1.9", UnderOdds: "1.9", Version: 3,
	}}
	stat := events.SupplierEnvelope{Type: events.EnvelopeStat, Stat: &events.StatResult{
		GameID: "g1", PlayerID: "p1", StatCategory: "points", ActualValue: "27",
	}}

	for _, env := range []events.SupplierEnvelope{prop, stat} {
		if err := p.Publish(context.Background(), env); err != nil {
			t.Fatalf("Publish(%s): %v", env.Type, err)
		}
	}

	if len(props.msgs) != 1 || string(props.msgs[0].Key) != "g1:p1:points" {
		t.Fatalf("props topic got %+v", props.msgs)
	}
	var pu events.PropUpdate
	if err := json.Unmarshal(props.msgs[0].Value, &pu); err != nil || pu.Line != "24.5" || pu.Version != 3 {
		t.Errorf("prop payload = %+v (err=%v)", pu, err)
	}

	if len(stats.msgs) != 1 || string(stats.msgs[0].Key) != "g1:p1:points" {
		t.Fatalf("stats topic got %+v", stats.msgs)
	}
	var sr events.StatResult
	if err := json.Unmarshal(stats.msgs[0].Value, &sr); err != nil || sr.ActualValue != "27" {
		t.Errorf("stat payload = %+v (err=%v)", sr, err)
	}
	if kinds["prop"] != 1 || kinds["stat"] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestPublishRejectsMalformedEnvelope(t *testing.T) {
	p := NewKafkaPublisher(&fakeWriter{}, &fakeWriter{}, zap.NewNop())

	for _, env := range []events.SupplierEnvelope{
		{Type: "odds"},
		{Type: events.EnvelopeProp},
		{Type: events.EnvelopeStat, Prop: &events.PropUpdate{}},
	} {
		if err := p.Publish(context.Background(), env); !errors.Is(err, ErrUnknownEnvelope) {
			t.Errorf("Publish(%+v) err = %v, want ErrUnknownEnvelope", env, err)
		}
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&fakeWriter{err: boom}, &fakeWriter{}, zap.NewNop())

	err := p.Publish(context.Background(), events.SupplierEnvelope{Type: events.EnvelopeProp, Prop: &events.PropUpdate{GameID: "g"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped writer error", err)
	}
}
