package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Room string `json:"room"`
}

func TestNewMessageRoundTripsPayload(t *testing.T) {
	msg, err := NewMessage("register-client", samplePayload{Room: "ABCD"})
	require.NoError(t, err)
	assert.Equal(t, "register-client", msg.Event)

	var decoded samplePayload
	require.NoError(t, msg.Decode(&decoded))
	assert.Equal(t, "ABCD", decoded.Room)
}

func TestNewMessageWithNilPayloadHasNoData(t *testing.T) {
	msg, err := NewMessage("get-state", nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Data)
}

func TestDecodeIntoZeroDataIsNoop(t *testing.T) {
	msg := Message{Event: "ping"}
	var decoded samplePayload
	require.NoError(t, msg.Decode(&decoded))
	assert.Equal(t, samplePayload{}, decoded)
}
