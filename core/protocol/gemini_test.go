package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

func TestGeminiEncodeSetupShape(t *testing.T) {
	codec := NewGeminiCodec()

	raw, err := codec.EncodeSetup(SetupConfig{
		Model:              "models/gemini-2.0-flash-live",
		Voice:              "Puck",
		SystemInstructions: "be brief",
		ResponseModalities: []Modality{ModalityAudio},
		InputSampleRate:    16000,
	})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("setup message is not valid JSON: %v", err)
	}

	setup, ok := msg["setup"].(map[string]any)
	if !ok {
		t.Fatalf("expected top-level setup object, got %v", msg)
	}
	if setup["model"] != "models/gemini-2.0-flash-live" {
		t.Fatalf("unexpected model field: %v", setup["model"])
	}

	generationConfig := setup["generationConfig"].(map[string]any)
	modalities := generationConfig["responseModalities"].([]any)
	if len(modalities) != 1 || modalities[0] != "AUDIO" {
		t.Fatalf("expected responseModalities [AUDIO], got %v", modalities)
	}

	voiceName := generationConfig["speechConfig"].(map[string]any)["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)["voiceName"]
	if voiceName != "Puck" {
		t.Fatalf("expected voiceName Puck, got %v", voiceName)
	}

	parts := setup["systemInstruction"].(map[string]any)["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "be brief" {
		t.Fatalf("expected system instruction text part, got %v", parts)
	}
}

func TestGeminiEncodeAudioCarriesRateAndBase64(t *testing.T) {
	codec := NewGeminiCodec()
	if _, err := codec.EncodeSetup(SetupConfig{Model: "m", InputSampleRate: 16000}); err != nil {
		t.Fatalf("unexpected setup error: %v", err)
	}

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	raw, err := codec.EncodeAudio(pcm)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg struct {
		RealtimeInput struct {
			MediaChunks []struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"mediaChunks"`
		} `json:"realtimeInput"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("audio message is not valid JSON: %v", err)
	}

	if len(msg.RealtimeInput.MediaChunks) != 1 {
		t.Fatalf("expected exactly one media chunk, got %d", len(msg.RealtimeInput.MediaChunks))
	}
	chunk := msg.RealtimeInput.MediaChunks[0]
	if chunk.MimeType != "audio/pcm;rate=16000" {
		t.Fatalf("unexpected mime type %q", chunk.MimeType)
	}
	if chunk.Data != base64.StdEncoding.EncodeToString(pcm) {
		t.Fatalf("audio payload is not the base64 of the input chunk")
	}
}

func TestGeminiDecodeSetupComplete(t *testing.T) {
	decoded, err := NewGeminiCodec().Decode([]byte(`{"setupComplete":{}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	if _, ok := decoded[0].(events.Connected); !ok {
		t.Fatalf("expected Connected event, got %T", decoded[0])
	}
}

func TestGeminiDecodeDropsThoughtParts(t *testing.T) {
	raw := []byte(`{"serverContent":{"modelTurn":{"parts":[{"text":"internal","thought":true},{"text":"hello"}]}}}`)

	decoded, err := NewGeminiCodec().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	delta, ok := decoded[0].(events.TranscriptDelta)
	if !ok {
		t.Fatalf("expected TranscriptDelta, got %T", decoded[0])
	}
	if delta.Text != "hello" {
		t.Fatalf("expected thought part to be dropped, got %q", delta.Text)
	}
}

func TestGeminiDecodePrefersOutputTranscriptionOverPartText(t *testing.T) {
	codec := NewGeminiCodec()

	decoded, err := codec.Decode([]byte(`{"serverContent":{"outputTranscription":{"text":"dedicated"},"modelTurn":{"parts":[{"text":"fallback"}]}}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected exactly one transcript event, got %d", len(decoded))
	}
	if delta := decoded[0].(events.TranscriptDelta); delta.Text != "dedicated" {
		t.Fatalf("expected dedicated transcription to win, got %q", delta.Text)
	}

	// The preference holds for later messages in the same turn.
	decoded, err = codec.Decode([]byte(`{"serverContent":{"modelTurn":{"parts":[{"text":"late fallback"}]}}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected fallback text to stay suppressed within the turn, got %v", decoded)
	}

	// Turn completion resets the preference.
	if _, err = codec.Decode([]byte(`{"serverContent":{"turnComplete":true}}`)); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	decoded, err = codec.Decode([]byte(`{"serverContent":{"modelTurn":{"parts":[{"text":"next turn"}]}}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 || decoded[0].(events.TranscriptDelta).Text != "next turn" {
		t.Fatalf("expected fallback text to work again after turn completion, got %v", decoded)
	}
}

func TestGeminiDecodeTurnCompleteEmitsBothBoundaries(t *testing.T) {
	decoded, err := NewGeminiCodec().Decode([]byte(`{"serverContent":{"turnComplete":true}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected transcript and audio boundaries, got %d events", len(decoded))
	}
	if _, ok := decoded[0].(events.TranscriptDone); !ok {
		t.Fatalf("expected TranscriptDone first, got %T", decoded[0])
	}
	if _, ok := decoded[1].(events.AudioDone); !ok {
		t.Fatalf("expected AudioDone second, got %T", decoded[1])
	}
}

func TestGeminiDecodeAudioPart(t *testing.T) {
	pcm := []byte{0x10, 0x20, 0x30, 0x40}
	raw := []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
		base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`)

	decoded, err := NewGeminiCodec().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one event, got %d", len(decoded))
	}
	delta, ok := decoded[0].(events.AudioDelta)
	if !ok {
		t.Fatalf("expected AudioDelta, got %T", decoded[0])
	}
	if string(delta.Audio) != string(pcm) {
		t.Fatalf("expected decoded audio bytes to match the original chunk")
	}
}

func TestGeminiDecodeToolCallAndError(t *testing.T) {
	raw := []byte(`{"toolCall":{"functionCalls":[{"id":"x1","name":"lookup","args":{"q":"cats"}}]},"error":{"message":"quota exceeded"}}`)

	decoded, err := NewGeminiCodec().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected tool call and error events, got %d", len(decoded))
	}

	call := decoded[0].(events.ToolCall)
	if call.ID != "x1" || call.Name != "lookup" {
		t.Fatalf("unexpected tool call identity: %+v", call)
	}
	var args map[string]string
	if err := json.Unmarshal(call.Arguments, &args); err != nil || args["q"] != "cats" {
		t.Fatalf("expected raw args to round-trip, got %s", call.Arguments)
	}

	if errEvent := decoded[1].(events.Error); errEvent.Message != "quota exceeded" {
		t.Fatalf("unexpected error message %q", errEvent.Message)
	}
}

func TestGeminiDecodeIgnoresUnknownShapes(t *testing.T) {
	decoded, err := NewGeminiCodec().Decode([]byte(`{"usageMetadata":{"totalTokenCount":12}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected unknown shapes to be ignored, got %v", decoded)
	}
}

func TestGeminiDecodeMalformedJSONFails(t *testing.T) {
	if _, err := NewGeminiCodec().Decode([]byte(`{"serverContent":`)); err == nil {
		t.Fatalf("expected malformed JSON to fail decoding")
	}
}
