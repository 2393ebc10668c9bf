package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

// GeminiCodec speaks the turn/content oriented dialect: "setup" on the way
// out, "setupComplete"/"serverContent"/"toolCall" on the way in.
type GeminiCodec struct {
	inputSampleRate int

	// sawOutputTranscription tracks whether the dedicated transcription
	// container produced text for the current turn. When it has, fallback
	// text on model-turn parts is suppressed until the turn completes.
	sawOutputTranscription bool
}

func NewGeminiCodec() *GeminiCodec {
	return &GeminiCodec{inputSampleRate: 16000}
}

type geminiSetupMessage struct {
	Setup geminiSetup `json:"setup"`
}

type geminiSetup struct {
	Model             string                  `json:"model"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	Thought    bool              `json:"thought,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiTool struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

type geminiRealtimeInputMessage struct {
	RealtimeInput geminiRealtimeInput `json:"realtimeInput"`
}

type geminiRealtimeInput struct {
	MediaChunks []geminiInlineData `json:"mediaChunks"`
}

type geminiClientContentMessage struct {
	ClientContent geminiClientContent `json:"clientContent"`
}

type geminiClientContent struct {
	Turns        []geminiContent `json:"turns"`
	TurnComplete bool            `json:"turnComplete"`
}

type geminiToolResponseMessage struct {
	ToolResponse geminiToolResponse `json:"toolResponse"`
}

type geminiToolResponse struct {
	FunctionResponses []geminiFunctionResponse `json:"functionResponses"`
}

type geminiFunctionResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Response any    `json:"response"`
}

func (c *GeminiCodec) EncodeSetup(config SetupConfig) ([]byte, error) {
	if config.InputSampleRate > 0 {
		c.inputSampleRate = config.InputSampleRate
	}

	setup := geminiSetup{Model: config.Model}

	generationConfig := geminiGenerationConfig{}
	for _, modality := range config.ResponseModalities {
		generationConfig.ResponseModalities = append(generationConfig.ResponseModalities,
			strings.ToUpper(string(modality)))
	}
	if config.Voice != "" {
		generationConfig.SpeechConfig = &geminiSpeechConfig{
			VoiceConfig: geminiVoiceConfig{
				PrebuiltVoiceConfig: geminiPrebuiltVoiceConfig{VoiceName: config.Voice},
			},
		}
	}
	if len(generationConfig.ResponseModalities) > 0 || generationConfig.SpeechConfig != nil {
		setup.GenerationConfig = &generationConfig
	}

	if config.SystemInstructions != "" {
		setup.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: config.SystemInstructions}},
		}
	}

	if len(config.Tools) > 0 {
		setup.Tools = []geminiTool{{FunctionDeclarations: config.Tools}}
	}

	return json.Marshal(geminiSetupMessage{Setup: setup})
}

func (c *GeminiCodec) EncodeAudio(pcm []byte) ([]byte, error) {
	return json.Marshal(geminiRealtimeInputMessage{
		RealtimeInput: geminiRealtimeInput{
			MediaChunks: []geminiInlineData{{
				MimeType: fmt.Sprintf("audio/pcm;rate=%d", c.inputSampleRate),
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

func (c *GeminiCodec) EncodeImage(jpeg []byte) ([]byte, error) {
	return json.Marshal(geminiRealtimeInputMessage{
		RealtimeInput: geminiRealtimeInput{
			MediaChunks: []geminiInlineData{{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(jpeg),
			}},
		},
	})
}

func (c *GeminiCodec) EncodeText(text string) ([]byte, error) {
	return json.Marshal(geminiClientContentMessage{
		ClientContent: geminiClientContent{
			Turns: []geminiContent{{
				Role:  "user",
				Parts: []geminiPart{{Text: text}},
			}},
			TurnComplete: true,
		},
	})
}

func (c *GeminiCodec) EncodeToolResponse(response ToolResponse) ([]byte, error) {
	return json.Marshal(geminiToolResponseMessage{
		ToolResponse: geminiToolResponse{
			FunctionResponses: []geminiFunctionResponse{{
				ID:       response.ID,
				Name:     response.Name,
				Response: response.Result,
			}},
		},
	})
}

type geminiServerMessage struct {
	SetupComplete *struct{}            `json:"setupComplete"`
	ServerContent *geminiServerContent `json:"serverContent"`
	ToolCall      *geminiToolCall      `json:"toolCall"`
	Error         *geminiError         `json:"error"`
}

type geminiServerContent struct {
	ModelTurn           *geminiContent       `json:"modelTurn"`
	TurnComplete        bool                 `json:"turnComplete"`
	Interrupted         bool                 `json:"interrupted"`
	InputTranscription  *geminiTranscription `json:"inputTranscription"`
	OutputTranscription *geminiTranscription `json:"outputTranscription"`
}

type geminiTranscription struct {
	Text string `json:"text"`
}

type geminiToolCall struct {
	FunctionCalls []geminiFunctionCall `json:"functionCalls"`
}

type geminiFunctionCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type geminiError struct {
	Message string `json:"message"`
}

func (c *GeminiCodec) Decode(raw []byte) ([]events.Event, error) {
	var msg geminiServerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server message: %w", err)
	}

	var decoded []events.Event

	if msg.SetupComplete != nil {
		decoded = append(decoded, events.NewConnected())
	}

	if content := msg.ServerContent; content != nil {
		if content.Interrupted {
			decoded = append(decoded, events.NewInterrupted())
		}

		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			decoded = append(decoded, events.NewUserTranscript(content.InputTranscription.Text))
		}

		if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
			c.sawOutputTranscription = true
			decoded = append(decoded, events.NewTranscriptDelta(content.OutputTranscription.Text))
		}

		if content.ModelTurn != nil {
			decoded = append(decoded, c.decodeModelTurnParts(content.ModelTurn.Parts)...)
		}

		if content.TurnComplete {
			c.sawOutputTranscription = false
			decoded = append(decoded,
				events.NewTranscriptDone(""),
				events.NewAudioDone(),
			)
		}
	}

	if msg.ToolCall != nil {
		for _, call := range msg.ToolCall.FunctionCalls {
			decoded = append(decoded, events.NewToolCall(call.ID, call.Name, call.Args))
		}
	}

	if msg.Error != nil {
		decoded = append(decoded, events.NewError(msg.Error.Message))
	}

	return decoded, nil
}

func (c *GeminiCodec) decodeModelTurnParts(parts []geminiPart) []events.Event {
	var decoded []events.Event
	for _, part := range parts {
		if part.Thought {
			continue
		}

		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MimeType, "audio/") {
			audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil || len(audio) == 0 {
				continue
			}
			decoded = append(decoded, events.NewAudioDelta(audio))
			continue
		}

		// Fallback transcript source; the dedicated transcription container
		// wins whenever it produced text for this turn.
		if part.Text != "" && !c.sawOutputTranscription {
			decoded = append(decoded, events.NewTranscriptDelta(part.Text))
		}
	}
	return decoded
}
