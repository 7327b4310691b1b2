package marionette

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// requestEnvelope is the ordered 4-tuple [0, id, name, params] sent on the
// wire. Direction 0 always means "request".
type requestEnvelope struct {
	id     uint32
	name   string
	params any
}

func (e requestEnvelope) MarshalJSON() ([]byte, error) {
	params, err := json.Marshal(e.params)
	if err != nil {
		return nil, fmt.Errorf("marionette: marshaling params for %s: %w", e.name, err)
	}
	return json.Marshal([]any{0, e.id, e.name, json.RawMessage(params)})
}

// responseEnvelope is the ordered 4-tuple [1, id, error|null, result|null].
// The two response shapes are disambiguated by whether the third element is
// null (success, result carried in the fourth) or an object (failure).
type responseEnvelope struct {
	ID      uint32
	Failure *CommandFailureError // non-nil on failure
	Result  json.RawMessage      // set on success
}

func (e *responseEnvelope) UnmarshalJSON(data []byte) error {
	var raw [4]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("marionette: decoding response envelope: %w", err)
	}

	var direction int
	if err := json.Unmarshal(raw[0], &direction); err != nil {
		return fmt.Errorf("marionette: decoding response direction: %w", err)
	}
	if direction != 1 {
		return fmt.Errorf("marionette: unexpected response direction %d", direction)
	}

	var id uint32
	if err := json.Unmarshal(raw[1], &id); err != nil {
		return fmt.Errorf("marionette: decoding response id: %w", err)
	}
	e.ID = id

	if string(raw[2]) != "null" {
		var failure struct {
			Error      string `json:"error"`
			Message    string `json:"message"`
			Stacktrace string `json:"stacktrace"`
		}
		if err := json.Unmarshal(raw[2], &failure); err != nil {
			return fmt.Errorf("marionette: decoding failure envelope: %w", err)
		}
		e.Failure = &CommandFailureError{
			ID:         id,
			ErrorType:  failure.Error,
			Message:    failure.Message,
			StackTrace: failure.Stacktrace,
		}
		return nil
	}

	e.Result = raw[3]
	return nil
}

// handshakeFrame is the unsolicited JSON object sent immediately after
// accept by the Marionette server.
type handshakeFrame struct {
	MarionetteProtocol int    `json:"marionetteProtocol"`
	ApplicationType    string `json:"applicationType"`
}
