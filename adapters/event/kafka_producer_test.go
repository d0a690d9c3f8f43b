package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishProfileEvent_RoundTrip(t *testing.T) {
	w := &fakeWriter{}
	c := &KafkaProducerClient{ProfileEventsWriter: w, logger: logger.NewNop()}

	e := service.ProfileEvent{
		EventID:    uuid.New(),
		EventType:  service.ProfileEventUpdated,
		AssetRefs:  []string{"/uploads/cv.pdf"},
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.PublishProfileEvent(context.Background(), e))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, e.EventID.String(), string(w.msgs[0].Key))

	got, err := DecodeProfileEvent(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, e, got)

	c.Close()
	assert.True(t, w.closed)
}

func TestPublishProfileEvent_WriteError(t *testing.T) {
	c := &KafkaProducerClient{ProfileEventsWriter: &fakeWriter{err: errors.New("broker down")}, logger: logger.NewNop()}
	err := c.PublishProfileEvent(context.Background(), service.ProfileEvent{EventID: uuid.New()})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaProducerClient_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducerClient(config.Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestDecodeProfileEvent_Malformed(t *testing.T) {
	_, err := DecodeProfileEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}
