package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"gotest.tools/v3/assert"

	"github.com/leoviajar/wc-upsell/internal/domain"
	r "github.com/leoviajar/wc-upsell/internal/repository"
)

func setupTestDB(t *testing.T) (r.CartRepository, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	// Get connection string
	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Connect to MongoDB
	db, err := r.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := r.NewMongoCartRepository(db)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	// Start Kafka container using testcontainers Kafka module
	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	// Get broker address
	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	carts, cleanupDb := setupTestDB(t)
	defer cleanupDb()
	brokers, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	topic := "order-completed"
	createTopic(t, brokers, topic)

	poller := NewPoller(carts, brokers)
	defer poller.Close()

	// seed a cart for the session
	err := carts.UpsertCart(ctx, &domain.Cart{
		SessionID: "session-123",
		Lines: []domain.CartLine{
			{Key: "line-a", ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("50"), AddedAt: time.Now()},
		},
	})
	require.NoError(t, err)
	cart, errGetCart := carts.GetCart(ctx, "session-123")
	require.NoError(t, errGetCart)
	assert.Equal(t, 1, len(cart.Lines))

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	payload := map[string]interface{}{
		"session_id": "session-123",
		"order_id":   "order-42",
	}

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	msg := kafkaGo.Message{
		Key:   []byte("order-42"), // order_id for ordering
		Value: payloadJSON,
	}

	err = w.WriteMessages(ctx, msg)
	require.NoError(t, err)
	w.Close()

	go poller.Run(ctx) // start poller
	require.Eventually(t, func() bool {
		_, eGetCart := carts.GetCart(ctx, "session-123")
		return errors.Is(eGetCart, r.ErrCartNotFound) // cart is cleared
	}, 15*time.Second, 500*time.Millisecond)
}
