package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/player-props-platform/pkg/contracts/events"
)

var ErrUnknownEnvelope = errors.New("unknown supplier envelope")

// MessageWriter é satisfeito por *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher roteia os frames do fornecedor: linhas de props para
// prop_updates e resultados de estatística para stat_results.
type KafkaPublisher struct {
	props MessageWriter
	stats MessageWriter
	log   *zap.Logger

	OnPublished func(kind string) // métricas por tipo
}

func NewKafkaPublisher(props, stats MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{props: props, stats: stats, log: log}
}

// Publish serializa o conteúdo do envelope e envia ao tópico do seu tipo.
// A key é a prop (jogo:jogador:estatística), o que mantém a ordem por prop na partição.
func (p *KafkaPublisher) Publish(ctx context.Context, env events.SupplierEnvelope) error {
	var (
		w       MessageWriter
		key     string
		payload any
	)
	switch {
	case env.Type == events.EnvelopeProp && env.Prop != nil:
		w, key, payload = p.props, env.Prop.PropKey(), env.Prop
	case env.Type == events.EnvelopeStat && env.Stat != nil:
		w, key, payload = p.stats, env.Stat.PropKey(), env.Stat
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnvelope, env.Type)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s %s: %w", env.Type, key, err)
	}

	p.log.Debug("published supplier message", zap.String("type", env.Type), zap.String("prop", key))
	if p.OnPublished != nil {
		p.OnPublished(env.Type)
	}
	return nil
}

// EnsureTopics cria os tópicos via controller do cluster (uso em local/dev).
// Tópico já existente não é erro.
func EnsureTopics(ctx context.Context, brokers []string, log *zap.Logger, topics ...string) error {
	if len(brokers) == 0 {
		return errors.New("kafka brokers not provided")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	// single-broker: 1 partição, replicação 1
	cfgs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := cconn.CreateTopics(cfgs...); err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create topics: %w", err)
	}
	log.Info("kafka topics ready", zap.Strings("topics", topics))
	return nil
}
