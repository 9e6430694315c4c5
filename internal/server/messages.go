package server

import (
	"encoding/json"

	"mini-planet/internal/config"
	"mini-planet/internal/crater"
)

// Client to server message types.
const (
	msgUpdate = "update"
	msgStamp  = "stamp"
)

// Server to client message types. Mesh frames travel as binary messages.
const (
	msgSettings = "settings"
	msgShading  = "shading"
	msgError    = "error"
)

type clientMessage struct {
	Type string `json:"type"`
	// Settings is a partial settings document merged over the current ones.
	Settings json.RawMessage `json:"settings,omitempty"`
	Crater   *crater.Spec    `json:"crater,omitempty"`
}

type settingsMessage struct {
	Type     string          `json:"type"`
	Version  uint64          `json:"version"`
	Settings config.Settings `json:"settings"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
