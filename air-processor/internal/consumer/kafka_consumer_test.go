package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

func newTestHandler(handler func(ctx context.Context, objectKey string) error) *consumerHandler {
	return &consumerHandler{
		handler: handler,
		logger:  logger.New("error", "development").WithField("component", "test"),
	}
}

func TestConsumerHandler_DeserializeEvent(t *testing.T) {
	h := newTestHandler(nil)

	t.Run("valid event", func(t *testing.T) {
		data := []byte(`{"object_key": "thailand_air_quality_20240315_100000.json", "bucket": "fetch_aqicn", "event_time": "2024-03-15T10:00:05Z"}`)

		event, err := h.deserializeEvent(data)

		require.NoError(t, err)
		assert.Equal(t, "thailand_air_quality_20240315_100000.json", event.ObjectKey)
		assert.Equal(t, "fetch_aqicn", event.Bucket)
		assert.False(t, event.EventTime.IsZero())
	})

	t.Run("key only", func(t *testing.T) {
		event, err := h.deserializeEvent([]byte(`{"object_key": "a.json"}`))

		require.NoError(t, err)
		assert.Equal(t, "a.json", event.ObjectKey)
	})

	t.Run("missing object key", func(t *testing.T) {
		event, err := h.deserializeEvent([]byte(`{"bucket": "fetch_aqicn"}`))

		assert.Error(t, err)
		assert.Nil(t, event)
		assert.Contains(t, err.Error(), "invalid object event")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		event, err := h.deserializeEvent([]byte(`{broken`))

		assert.Error(t, err)
		assert.Nil(t, event)
		assert.Contains(t, err.Error(), "failed to unmarshal object event")
	})
}

type mockSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []*sarama.ConsumerMessage
}

func (s *mockSession) Claims() map[string][]int32 { return nil }
func (s *mockSession) MemberID() string           { return "test-member" }
func (s *mockSession) GenerationID() int32        { return 1 }
func (s *mockSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *mockSession) Commit() {}
func (s *mockSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *mockSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg)
}
func (s *mockSession) Context() context.Context { return s.ctx }

func (s *mockSession) markedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

type mockClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *mockClaim) Topic() string                            { return "airquality-object-events" }
func (c *mockClaim) Partition() int32                         { return 0 }
func (c *mockClaim) InitialOffset() int64                     { return 0 }
func (c *mockClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *mockClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newClaimWith(values ...string) *mockClaim {
	claim := &mockClaim{messages: make(chan *sarama.ConsumerMessage, len(values))}
	for i, v := range values {
		claim.messages <- &sarama.ConsumerMessage{
			Topic:  "airquality-object-events",
			Offset: int64(i),
			Value:  []byte(v),
		}
	}
	close(claim.messages)
	return claim
}

func TestConsumerHandler_ConsumeClaim(t *testing.T) {
	t.Run("marks offset after successful processing", func(t *testing.T) {
		var processed []string
		h := newTestHandler(func(ctx context.Context, objectKey string) error {
			processed = append(processed, objectKey)
			return nil
		})

		session := &mockSession{ctx: context.Background()}
		claim := newClaimWith(`{"object_key": "a.json"}`, `{"object_key": "b.json"}`)

		err := h.ConsumeClaim(session, claim)

		require.NoError(t, err)
		assert.Equal(t, []string{"a.json", "b.json"}, processed)
		assert.Equal(t, 2, session.markedCount())
	})

	t.Run("handler failure leaves offset unmarked", func(t *testing.T) {
		h := newTestHandler(func(ctx context.Context, objectKey string) error {
			return errors.New("postgres unavailable")
		})

		session := &mockSession{ctx: context.Background()}
		claim := newClaimWith(`{"object_key": "a.json"}`)

		err := h.ConsumeClaim(session, claim)

		require.NoError(t, err)
		assert.Equal(t, 0, session.markedCount())
	})

	t.Run("malformed event is marked and dropped", func(t *testing.T) {
		var processed []string
		h := newTestHandler(func(ctx context.Context, objectKey string) error {
			processed = append(processed, objectKey)
			return nil
		})

		session := &mockSession{ctx: context.Background()}
		claim := newClaimWith(`{broken`, `{"object_key": "b.json"}`)

		err := h.ConsumeClaim(session, claim)

		require.NoError(t, err)
		assert.Equal(t, []string{"b.json"}, processed)
		assert.Equal(t, 2, session.markedCount())
	})

	t.Run("stops when session context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := newTestHandler(func(ctx context.Context, objectKey string) error {
			t.Fatal("handler must not run after cancellation")
			return nil
		})

		session := &mockSession{ctx: ctx}
		claim := newClaimWith(`{"object_key": "a.json"}`)

		err := h.ConsumeClaim(session, claim)

		require.NoError(t, err)
		assert.Equal(t, 0, session.markedCount())
	})
}

func TestConsumerHandler_SetupCleanup(t *testing.T) {
	h := newTestHandler(nil)

	assert.NoError(t, h.Setup(nil))
	assert.NoError(t, h.Cleanup(nil))
}

func TestNewKafkaConsumer_InvalidBroker(t *testing.T) {
	consumer, err := NewKafkaConsumer([]string{}, "airquality-object-events", "air-processor-group")

	assert.Error(t, err)
	assert.Nil(t, consumer)
	assert.Contains(t, err.Error(), "failed to create Kafka consumer")
}
