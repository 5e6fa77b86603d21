package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventAttemptStarted, "attempt-7", AttemptStartedEvent{AttemptID: 7, ExamID: 3})

	assert.Equal(t, EventAttemptStarted, e.Type)
	assert.Equal(t, eventSource, e.Source)
	assert.Equal(t, eventVersion, e.Version)
	assert.Len(t, e.ID, 36)
	assert.NotEqual(t, e.ID, NewEvent(EventAttemptStarted, "", nil).ID)
}

func TestToMessage(t *testing.T) {
	e := NewEvent(EventAttemptEvaluated, "attempt-9", AttemptEvaluatedEvent{AttemptID: 9, Passed: true})

	msg, err := toMessage(e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, msg.UUID)
	assert.Equal(t, "attempt.evaluated", msg.Metadata.Get("event_type"))
	assert.Equal(t, "attempt-9", msg.Metadata.Get(partitionKeyHeader))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.NotContains(t, decoded, "PartitionKey")
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["attempt_id"])
	assert.Equal(t, true, data["passed"])
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, NewEvent(EventAttemptPaused, "a", AttemptPausedEvent{AttemptID: 1})))
	require.NoError(t, pub.Publish(ctx, NewEvent(EventAttemptResumed, "a", AttemptResumedEvent{AttemptID: 1})))

	published := pub.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventAttemptPaused, published[0].Type)
	assert.Equal(t, EventAttemptResumed, published[1].Type)

	pub.Err = errors.New("broker down")
	assert.Error(t, pub.Publish(ctx, NewEvent(EventAttemptPaused, "a", nil)))
	assert.Len(t, pub.GetPublishedEvents(), 2)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
	assert.NoError(t, pub.Close())
}
