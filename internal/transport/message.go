// Package transport implements the bidirectional, named-event websocket
// protocol every Syng participant (performer/web client, playback client,
// admin) speaks with the relay: a typed {event, data} envelope over one
// persistent connection, with per-connection fan-out (buffered channel,
// drop-on-full) so one slow reader never blocks the rest of a room.
package transport

import "encoding/json"

// Message is the single envelope every event, in both directions, is wrapped
// in: Event names the handler, Data carries its argument.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals payload into a Message for event.
func NewMessage(event string, payload any) (Message, error) {
	if payload == nil {
		return Message{Event: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: raw}, nil
}

// Decode unmarshals m.Data into out.
func (m Message) Decode(out any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, out)
}
