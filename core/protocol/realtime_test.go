package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

func newTestRealtimeCodec() *RealtimeCodec {
	codec := NewRealtimeCodec()
	codec.newEventID = func() string { return "event_test" }
	return codec
}

func TestRealtimeEncodeSetupShape(t *testing.T) {
	codec := newTestRealtimeCodec()

	raw, err := codec.EncodeSetup(SetupConfig{
		Model:              "qwen3-omni-flash-realtime",
		Voice:              "Cherry",
		SystemInstructions: "be brief",
		ResponseModalities: []Modality{ModalityText, ModalityAudio},
		InputSampleRate:    16000,
		Tools: []ToolDeclaration{{
			Name:        "lookup",
			Description: "looks things up",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		}},
	})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("setup message is not valid JSON: %v", err)
	}
	if msg["type"] != "session.update" {
		t.Fatalf("expected type session.update, got %v", msg["type"])
	}
	if msg["event_id"] != "event_test" {
		t.Fatalf("expected outbound event id, got %v", msg["event_id"])
	}

	session := msg["session"].(map[string]any)
	if session["voice"] != "Cherry" || session["instructions"] != "be brief" {
		t.Fatalf("unexpected session fields: %v", session)
	}
	if session["input_audio_format"] != "pcm16" || session["output_audio_format"] != "pcm16" {
		t.Fatalf("expected pcm16 audio formats, got %v", session)
	}
	modalities := session["modalities"].([]any)
	if len(modalities) != 2 || modalities[0] != "text" || modalities[1] != "audio" {
		t.Fatalf("unexpected modalities %v", modalities)
	}
	tool := session["tools"].([]any)[0].(map[string]any)
	if tool["type"] != "function" || tool["name"] != "lookup" {
		t.Fatalf("unexpected tool definition %v", tool)
	}
}

func TestRealtimeEncodeSetupTranslationBlock(t *testing.T) {
	raw, err := newTestRealtimeCodec().EncodeSetup(SetupConfig{
		Model:          "qwen3-livetranslate-flash-realtime",
		SourceLanguage: "en",
		TargetLanguage: "zh",
	})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg struct {
		Session struct {
			Translation *struct {
				SourceLanguage string `json:"source_language"`
				TargetLanguage string `json:"target_language"`
			} `json:"translation"`
		} `json:"session"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("setup message is not valid JSON: %v", err)
	}
	if msg.Session.Translation == nil {
		t.Fatalf("expected translation block to be present")
	}
	if msg.Session.Translation.SourceLanguage != "en" || msg.Session.Translation.TargetLanguage != "zh" {
		t.Fatalf("unexpected translation languages %+v", msg.Session.Translation)
	}
}

func TestRealtimeEncodeAudioAppend(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	raw, err := newTestRealtimeCodec().EncodeAudio(pcm)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg struct {
		Type  string `json:"type"`
		Audio string `json:"audio"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("audio message is not valid JSON: %v", err)
	}
	if msg.Type != "input_audio_buffer.append" {
		t.Fatalf("unexpected type %q", msg.Type)
	}
	if msg.Audio != base64.StdEncoding.EncodeToString(pcm) {
		t.Fatalf("audio payload is not the base64 of the input chunk")
	}
}

func TestRealtimeEncodeToolResponseWrapsOutput(t *testing.T) {
	raw, err := newTestRealtimeCodec().EncodeToolResponse(ToolResponse{
		ID:     "call_7",
		Name:   "lookup",
		Result: map[string]any{"success": true},
	})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	var msg struct {
		Type string `json:"type"`
		Item struct {
			Type   string `json:"type"`
			CallID string `json:"call_id"`
			Output string `json:"output"`
		} `json:"item"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("tool response message is not valid JSON: %v", err)
	}
	if msg.Type != "conversation.item.create" || msg.Item.Type != "function_call_output" {
		t.Fatalf("unexpected message shape: %+v", msg)
	}
	if msg.Item.CallID != "call_7" {
		t.Fatalf("unexpected call id %q", msg.Item.CallID)
	}

	var output map[string]bool
	if err := json.Unmarshal([]byte(msg.Item.Output), &output); err != nil || !output["success"] {
		t.Fatalf("expected output to carry the serialized result, got %q", msg.Item.Output)
	}
}

func TestRealtimeDecodeLifecycleEvents(t *testing.T) {
	codec := newTestRealtimeCodec()

	for _, tc := range []struct {
		raw  string
		want events.Kind
	}{
		{`{"type":"session.created","event_id":"event_1"}`, events.KindConnected},
		{`{"type":"session.updated","event_id":"event_2"}`, events.KindConnected},
		{`{"type":"input_audio_buffer.speech_started"}`, events.KindSpeechStarted},
		{`{"type":"input_audio_buffer.speech_stopped"}`, events.KindSpeechStopped},
		{`{"type":"response.audio.done"}`, events.KindAudioDone},
	} {
		decoded, err := codec.Decode([]byte(tc.raw))
		if err != nil {
			t.Fatalf("unexpected decode error for %s: %v", tc.raw, err)
		}
		if len(decoded) != 1 || decoded[0].Kind() != tc.want {
			t.Fatalf("expected single %s event for %s, got %v", tc.want, tc.raw, decoded)
		}
	}
}

func TestRealtimeDecodeTranscripts(t *testing.T) {
	codec := newTestRealtimeCodec()

	decoded, err := codec.Decode([]byte(`{"type":"response.audio_transcript.delta","delta":"hel"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if delta := decoded[0].(events.TranscriptDelta); delta.Text != "hel" {
		t.Fatalf("unexpected transcript delta %q", delta.Text)
	}

	decoded, err = codec.Decode([]byte(`{"type":"response.audio_transcript.done","transcript":"hello"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if done := decoded[0].(events.TranscriptDone); done.Text != "hello" {
		t.Fatalf("unexpected final transcript %q", done.Text)
	}

	decoded, err = codec.Decode([]byte(`{"type":"conversation.item.input_audio_transcription.completed","transcript":"hi there"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if user := decoded[0].(events.UserTranscript); user.Text != "hi there" {
		t.Fatalf("unexpected user transcript %q", user.Text)
	}
}

func TestRealtimeDecodeResponseDoneWithoutTranscript(t *testing.T) {
	codec := newTestRealtimeCodec()

	if _, err := codec.Decode([]byte(`{"type":"response.audio.done"}`)); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	decoded, err := codec.Decode([]byte(`{"type":"response.done"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected a turn boundary for a transcript-less response, got %v", decoded)
	}
	if done := decoded[0].(events.TranscriptDone); done.Text != "" {
		t.Fatalf("expected an empty final transcript, got %q", done.Text)
	}
}

func TestRealtimeDecodeResponseDoneAfterTranscript(t *testing.T) {
	codec := newTestRealtimeCodec()

	if _, err := codec.Decode([]byte(`{"type":"response.audio_transcript.done","transcript":"hello"}`)); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	decoded, err := codec.Decode([]byte(`{"type":"response.done"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected no second turn boundary after the transcript, got %v", decoded)
	}

	// The next response starts fresh.
	decoded, err = codec.Decode([]byte(`{"type":"response.done"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Kind() != events.KindTranscriptDone {
		t.Fatalf("expected a turn boundary for the following response, got %v", decoded)
	}
}

func TestRealtimeDecodeAudioDelta(t *testing.T) {
	pcm := []byte{0x10, 0x20, 0x30, 0x40}
	raw := `{"type":"response.audio.delta","delta":"` + base64.StdEncoding.EncodeToString(pcm) + `"}`

	decoded, err := newTestRealtimeCodec().Decode([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if delta := decoded[0].(events.AudioDelta); string(delta.Audio) != string(pcm) {
		t.Fatalf("expected decoded audio bytes to match the original chunk")
	}

	if _, err := newTestRealtimeCodec().Decode([]byte(`{"type":"response.audio.delta","delta":"%%%"}`)); err == nil {
		t.Fatalf("expected invalid base64 audio to fail decoding")
	}
}

func TestRealtimeDecodeToolCall(t *testing.T) {
	raw := `{"type":"response.function_call_arguments.done","call_id":"call_9","name":"lookup","arguments":"{\"q\":\"cats\"}"}`

	decoded, err := newTestRealtimeCodec().Decode([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	call := decoded[0].(events.ToolCall)
	if call.ID != "call_9" || call.Name != "lookup" {
		t.Fatalf("unexpected tool call identity: %+v", call)
	}
	var args map[string]string
	if err := json.Unmarshal(call.Arguments, &args); err != nil || args["q"] != "cats" {
		t.Fatalf("expected arguments to stay parseable JSON, got %s", call.Arguments)
	}
}

func TestRealtimeDecodeErrorIncludesCode(t *testing.T) {
	decoded, err := newTestRealtimeCodec().Decode([]byte(`{"type":"error","error":{"code":"rate_limited","message":"slow down"}}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if errEvent := decoded[0].(events.Error); errEvent.Message != "rate_limited: slow down" {
		t.Fatalf("unexpected error message %q", errEvent.Message)
	}
}

func TestRealtimeDecodeIgnoresUnknownTypes(t *testing.T) {
	decoded, err := newTestRealtimeCodec().Decode([]byte(`{"type":"response.created","event_id":"event_2"}`))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected unknown event types to be ignored, got %v", decoded)
	}
}
