package protocol

import (
	"encoding/json"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

// Codec translates between one backend's JSON message envelope and the
// normalized event vocabulary in [events]. Encoders wrap a single outbound
// payload; Decode may yield zero or more events for one server message.
//
// A Codec instance is scoped to one session: dialects that need cross-message
// context (transcription preference within a turn) keep it internally and it
// is reset by the turn boundary events they emit.
type Codec interface {
	EncodeSetup(config SetupConfig) ([]byte, error)
	EncodeAudio(pcm []byte) ([]byte, error)
	EncodeImage(jpeg []byte) ([]byte, error)
	EncodeText(text string) ([]byte, error)
	EncodeToolResponse(response ToolResponse) ([]byte, error)
	Decode(raw []byte) ([]events.Event, error)
}

// SetupConfig carries the session-configuration parameters shared by both
// dialects. Fields a dialect has no envelope for are omitted from its wire
// form.
type SetupConfig struct {
	Model              string
	Voice              string
	SystemInstructions string

	// ResponseModalities selects text and/or audio output. Values are
	// normalized per dialect ("TEXT"/"AUDIO" vs "text"/"audio").
	ResponseModalities []Modality

	// InputSampleRate is the PCM16 rate of outbound audio chunks.
	InputSampleRate int

	// SourceLanguage and TargetLanguage configure live-translation backends.
	SourceLanguage string
	TargetLanguage string

	Tools []ToolDeclaration
}

type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
)

// ToolDeclaration describes one callable function advertised in the setup
// message. Parameters holds a JSON schema object.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolResponse is the result payload sent back for one function call.
type ToolResponse struct {
	ID     string
	Name   string
	Result any
}
