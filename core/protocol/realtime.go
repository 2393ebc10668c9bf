package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

// RealtimeCodec speaks the event-stream oriented dialect: every message is a
// flat object with an "event_id"/"type" header, as used by the Omni realtime
// and live-translation backends.
type RealtimeCodec struct {
	// newEventID stamps outbound messages; replaceable in tests.
	newEventID func() string

	// sawTranscriptDone tracks whether the current response carried a
	// transcript stream, so the response end can stand in as the turn
	// boundary when it did not.
	sawTranscriptDone bool
}

func NewRealtimeCodec() *RealtimeCodec {
	return &RealtimeCodec{
		newEventID: func() string { return "event_" + uuid.NewString() },
	}
}

type realtimeSessionUpdateMessage struct {
	EventID string          `json:"event_id,omitempty"`
	Type    string          `json:"type"`
	Session realtimeSession `json:"session"`
}

type realtimeSession struct {
	Model                   string                   `json:"model,omitempty"`
	Modalities              []string                 `json:"modalities,omitempty"`
	Voice                   string                   `json:"voice,omitempty"`
	Instructions            string                   `json:"instructions,omitempty"`
	InputAudioFormat        string                   `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string                   `json:"output_audio_format,omitempty"`
	InputAudioTranscription *realtimeTranscription   `json:"input_audio_transcription,omitempty"`
	Translation             *realtimeTranslation     `json:"translation,omitempty"`
	Tools                   []realtimeToolDefinition `json:"tools,omitempty"`
}

type realtimeTranscription struct {
	Model string `json:"model,omitempty"`
}

type realtimeTranslation struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type realtimeToolDefinition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type realtimeAudioAppendMessage struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type"`
	Audio   string `json:"audio"`
}

type realtimeImageAppendMessage struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type"`
	Image   string `json:"image"`
}

type realtimeItemCreateMessage struct {
	EventID string       `json:"event_id,omitempty"`
	Type    string       `json:"type"`
	Item    realtimeItem `json:"item"`
}

type realtimeItem struct {
	Type    string                `json:"type"`
	Role    string                `json:"role,omitempty"`
	CallID  string                `json:"call_id,omitempty"`
	Output  string                `json:"output,omitempty"`
	Content []realtimeItemContent `json:"content,omitempty"`
}

type realtimeItemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *RealtimeCodec) EncodeSetup(config SetupConfig) ([]byte, error) {
	session := realtimeSession{
		Model:        config.Model,
		Voice:        config.Voice,
		Instructions: config.SystemInstructions,
	}
	for _, modality := range config.ResponseModalities {
		session.Modalities = append(session.Modalities, string(modality))
	}
	if config.InputSampleRate > 0 {
		session.InputAudioFormat = "pcm16"
		session.OutputAudioFormat = "pcm16"
	}
	if config.SourceLanguage != "" || config.TargetLanguage != "" {
		session.Translation = &realtimeTranslation{
			SourceLanguage: config.SourceLanguage,
			TargetLanguage: config.TargetLanguage,
		}
	}
	for _, tool := range config.Tools {
		session.Tools = append(session.Tools, realtimeToolDefinition{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}

	return json.Marshal(realtimeSessionUpdateMessage{
		EventID: c.newEventID(),
		Type:    "session.update",
		Session: session,
	})
}

func (c *RealtimeCodec) EncodeAudio(pcm []byte) ([]byte, error) {
	return json.Marshal(realtimeAudioAppendMessage{
		EventID: c.newEventID(),
		Type:    "input_audio_buffer.append",
		Audio:   base64.StdEncoding.EncodeToString(pcm),
	})
}

func (c *RealtimeCodec) EncodeImage(jpeg []byte) ([]byte, error) {
	return json.Marshal(realtimeImageAppendMessage{
		EventID: c.newEventID(),
		Type:    "input_image_buffer.append",
		Image:   base64.StdEncoding.EncodeToString(jpeg),
	})
}

func (c *RealtimeCodec) EncodeText(text string) ([]byte, error) {
	return json.Marshal(realtimeItemCreateMessage{
		EventID: c.newEventID(),
		Type:    "conversation.item.create",
		Item: realtimeItem{
			Type:    "message",
			Role:    "user",
			Content: []realtimeItemContent{{Type: "input_text", Text: text}},
		},
	})
}

func (c *RealtimeCodec) EncodeToolResponse(response ToolResponse) ([]byte, error) {
	output, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool response output: %w", err)
	}

	return json.Marshal(realtimeItemCreateMessage{
		EventID: c.newEventID(),
		Type:    "conversation.item.create",
		Item: realtimeItem{
			Type:   "function_call_output",
			CallID: response.ID,
			Output: string(output),
		},
	})
}

type realtimeServerEvent struct {
	Type       string         `json:"type"`
	EventID    string         `json:"event_id,omitempty"`
	Delta      string         `json:"delta,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	CallID     string         `json:"call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Arguments  string         `json:"arguments,omitempty"`
	Error      *realtimeError `json:"error,omitempty"`
}

type realtimeError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (c *RealtimeCodec) Decode(raw []byte) ([]events.Event, error) {
	var event realtimeServerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server event: %w", err)
	}

	switch event.Type {
	case "session.created", "session.updated":
		return []events.Event{events.NewConnected()}, nil

	case "response.audio_transcript.delta", "response.text.delta":
		if event.Delta == "" {
			return nil, nil
		}
		return []events.Event{events.NewTranscriptDelta(event.Delta)}, nil

	case "response.audio_transcript.done", "response.text.done":
		c.sawTranscriptDone = true
		return []events.Event{events.NewTranscriptDone(event.Transcript)}, nil

	case "response.done":
		// Responses without a transcript stream (audio-only modality)
		// still need a turn boundary so per-turn state is cleaned up.
		sawTranscriptDone := c.sawTranscriptDone
		c.sawTranscriptDone = false
		if sawTranscriptDone {
			return nil, nil
		}
		return []events.Event{events.NewTranscriptDone("")}, nil

	case "response.audio.delta":
		audio, err := base64.StdEncoding.DecodeString(event.Delta)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio delta: %w", err)
		}
		if len(audio) == 0 {
			return nil, nil
		}
		return []events.Event{events.NewAudioDelta(audio)}, nil

	case "response.audio.done":
		return []events.Event{events.NewAudioDone()}, nil

	case "conversation.item.input_audio_transcription.completed":
		if event.Transcript == "" {
			return nil, nil
		}
		return []events.Event{events.NewUserTranscript(event.Transcript)}, nil

	case "input_audio_buffer.speech_started":
		return []events.Event{events.NewSpeechStarted()}, nil

	case "input_audio_buffer.speech_stopped":
		return []events.Event{events.NewSpeechStopped()}, nil

	case "response.function_call_arguments.done":
		return []events.Event{
			events.NewToolCall(event.CallID, event.Name, json.RawMessage(event.Arguments)),
		}, nil

	case "error":
		message := "unknown server error"
		if event.Error != nil {
			message = event.Error.Message
			if event.Error.Code != "" {
				message = event.Error.Code + ": " + message
			}
		}
		return []events.Event{events.NewError(message)}, nil
	}

	// Unknown event types are ignored for forward compatibility.
	return nil, nil
}
