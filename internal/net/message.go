package net

import (
	"encoding/json"
	"errors"
)

// ErrHubClosed is returned by operations on a closed hub or store.
var ErrHubClosed = errors.New("net: remote store closed")

// Message types on the hub connection.
const (
	MsgSubscribe   = "subscribe"   // client → hub: start receiving a path
	MsgUnsubscribe = "unsubscribe" // client → hub: stop receiving a path
	MsgWrite       = "write"       // client → hub: replace the value at a path
	MsgValue       = "value"       // hub → client: current value at a path
	MsgError       = "error"       // hub → client: request rejected
)

// NetworkMessage is one JSON frame on a hub websocket.
type NetworkMessage struct {
	Type  string          `json:"type"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}
