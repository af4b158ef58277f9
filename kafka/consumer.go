package kafka

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/IBM/sarama"

	"storyreel/orchestrator"
	"storyreel/types"
)

// Config holds the consumer group settings. Defaults mirror the env vars
// KAFKA_BROKERS, KAFKA_TOPIC and KAFKA_GROUP_ID.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

func ConfigFromEnv() Config {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "render-requests"
	}
	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "storyreel-renderer"
	}
	return Config{
		Brokers: strings.Split(brokers, ","),
		Topic:   topic,
		GroupID: groupID,
	}
}

// Consumer reads render requests from a Kafka topic and hands them to the
// orchestrator. Messages that fail to decode are marked so the group does not
// spin on poison input.
type Consumer struct {
	group sarama.ConsumerGroup
	orc   *orchestrator.Orchestrator
	cfg   Config
	ready chan bool
}

func NewConsumer(cfg Config, orc *orchestrator.Orchestrator) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		group: group,
		orc:   orc,
		cfg:   cfg,
		ready: make(chan bool),
	}, nil
}

// Start begins consuming and returns once the group has joined.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &renderRequestHandler{orc: c.orc, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				if err == context.Canceled {
					log.Println("Kafka consumer context canceled")
					return
				}
				log.Printf("Error from Kafka consumer: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	<-c.ready
	log.Printf("Kafka consumer started (group: %s, topic: %s)", c.cfg.GroupID, c.cfg.Topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("Kafka consumer error: %v", err)
		}
	}()

	return nil
}

func (c *Consumer) Close() error {
	log.Println("Closing Kafka consumer...")
	return c.group.Close()
}

// renderRequestHandler implements sarama.ConsumerGroupHandler for render
// request payloads.
type renderRequestHandler struct {
	orc   *orchestrator.Orchestrator
	ready chan bool
}

func (h *renderRequestHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *renderRequestHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *renderRequestHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			log.Printf("Received render request: partition=%d, offset=%d, key=%s",
				message.Partition, message.Offset, string(message.Key))

			var req types.RenderRequest
			if err := json.Unmarshal(message.Value, &req); err != nil {
				log.Printf("Failed to unmarshal render request, skipping: %v", err)
				session.MarkMessage(message, "")
				continue
			}
			if len(req.Scenes) == 0 {
				log.Printf("Render request has no scenes, skipping")
				session.MarkMessage(message, "")
				continue
			}

			res, err := h.orc.StartRender(req)
			if err != nil {
				log.Printf("Failed to start render: %v", err)
				continue // not marked, the message will be retried
			}
			log.Printf("Started render %s for project %s", res.ID, req.ProjectID)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
