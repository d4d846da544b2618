package channel

import "encoding/json"

const (
	TypePing        = "ping"
	TypeExtract     = "extractContentWithIframes"
	TypeDetectForms = "detectForms"
	TypeFillForms   = "fillForms"
)

type Request struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}
