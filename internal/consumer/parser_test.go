package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJSONMessageParser_Parse_ValidMessage(t *testing.T) {
	parser := NewJSONMessageParser()
	body := []byte(`{
		"projectId": "proj-1",
		"userId": "user-1",
		"event": "order.completed",
		"properties": {"total": 99.5},
		"timestamp": 1756700000,
		"receivedAt": 1756700001
	}`)

	msg, err := parser.Parse(body)

	assert.NoError(t, err)
	assert.Equal(t, "proj-1", msg.ProjectID)
	assert.Equal(t, "user-1", msg.UserID)
	assert.Equal(t, "order.completed", msg.Event)
	assert.Equal(t, 99.5, msg.Properties["total"])
	assert.Equal(t, int64(1756700000), msg.Timestamp)
	assert.Equal(t, int64(1756700001), msg.ReceivedAt)
}

func TestJSONMessageParser_Parse_InvalidJSON(t *testing.T) {
	parser := NewJSONMessageParser()

	msg, err := parser.Parse([]byte(`{not json`))

	assert.Error(t, err)
	assert.Nil(t, msg)
}

func TestJSONMessageParser_Parse_MissingProjectID(t *testing.T) {
	parser := NewJSONMessageParser()

	msg, err := parser.Parse([]byte(`{"event": "user.signup"}`))

	assert.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "projectId")
}

func TestJSONMessageParser_Parse_MissingEvent(t *testing.T) {
	parser := NewJSONMessageParser()

	msg, err := parser.Parse([]byte(`{"projectId": "proj-1"}`))

	assert.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "event")
}

func TestJSONMessageParser_Parse_DefaultsTimestamps(t *testing.T) {
	parser := NewJSONMessageParser()
	before := time.Now().Unix()

	msg, err := parser.Parse([]byte(`{"projectId": "proj-1", "event": "user.signup"}`))

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, msg.Timestamp, before)
	assert.GreaterOrEqual(t, msg.ReceivedAt, before)
}
