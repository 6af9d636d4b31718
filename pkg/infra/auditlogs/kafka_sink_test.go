package auditlogs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	produced    []*kafka.Message
	deliveryErr error
	produceErr  error
	hold        bool
	pending     int
	closed      bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if p.produceErr != nil {
		return p.produceErr
	}
	p.produced = append(p.produced, msg)
	if p.hold {
		return nil
	}
	reply := *msg
	reply.TopicPartition.Error = p.deliveryErr
	deliveryChan <- &reply
	return nil
}

func (p *fakeProducer) Flush(int) int { return p.pending }

func (p *fakeProducer) Close() { p.closed = true }

func testEvent() *security.Event {
	fp := &security.Fingerprint{ClientIP: "9.9.9.9", Path: "/wp-admin/", Method: "GET"}
	d := security.Deny("9.9.9.9", 1.0, "Honeypot accessed")
	return security.NewEvent(fp, d, security.ThreatHoneypot, time.Unix(1_700_000_000, 0))
}

func TestKafkaSink_Write(t *testing.T) {
	producer := &fakeProducer{}
	sink := newKafkaSinkWithProducer(KafkaConfig{Host: "localhost", Port: "9092", Topic: "security-events"}, producer)

	evt := testEvent()
	require.NoError(t, sink.Write(context.Background(), evt))
	require.Len(t, producer.produced, 1)

	msg := producer.produced[0]
	assert.Equal(t, "security-events", *msg.TopicPartition.Topic)
	assert.Equal(t, []byte("9.9.9.9"), msg.Key)

	var decoded security.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, security.ThreatHoneypot, decoded.ThreatType)
	assert.True(t, decoded.Blocked)
}

func TestKafkaSink_DeliveryFailure(t *testing.T) {
	producer := &fakeProducer{deliveryErr: errors.New("broker unavailable")}
	sink := newKafkaSinkWithProducer(KafkaConfig{Topic: "t"}, producer)

	err := sink.Write(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery failed")
}

func TestKafkaSink_ProduceFailure(t *testing.T) {
	producer := &fakeProducer{produceErr: errors.New("queue full")}
	sink := newKafkaSinkWithProducer(KafkaConfig{Topic: "t"}, producer)

	err := sink.Write(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to produce message")
}

func TestKafkaSink_ContextCancelled(t *testing.T) {
	producer := &fakeProducer{hold: true}
	sink := newKafkaSinkWithProducer(KafkaConfig{Topic: "t"}, producer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := sink.Write(ctx, testEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKafkaSink_Close(t *testing.T) {
	producer := &fakeProducer{pending: 3}
	sink := newKafkaSinkWithProducer(KafkaConfig{Topic: "t"}, producer)
	assert.Error(t, sink.Close())
	assert.True(t, producer.closed)

	assert.NoError(t, (&KafkaSink{}).Close())
	assert.Error(t, (&KafkaSink{}).Write(context.Background(), testEvent()))
}

func TestKafkaConfig_Validate(t *testing.T) {
	assert.NoError(t, KafkaConfig{Host: "h", Port: "9092", Topic: "t"}.Validate())
	assert.Error(t, KafkaConfig{Port: "9092", Topic: "t"}.Validate())
	assert.Error(t, KafkaConfig{Host: "h", Topic: "t"}.Validate())
	assert.Error(t, KafkaConfig{Host: "h", Port: "9092"}.Validate())
}
