package livesession

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/protocol"
)

type dialect int

const (
	dialectGemini dialect = iota
	dialectRealtime
)

// Backend bundles the per-provider quirks of one live endpoint: which wire
// dialect it speaks, default model and voice naming, whether it accepts
// function declarations, and how detected user speech relates to barge-in.
//
// Use one of the constructors below; a zero Backend is not usable.
type Backend struct {
	Name  string
	Model string
	Voice string

	// Path is appended to the provider's websocket base URL.
	Path string

	ResponseModalities []protocol.Modality

	// SourceLanguage and TargetLanguage configure live-translation
	// endpoints; empty for conversational backends.
	SourceLanguage string
	TargetLanguage string

	// SupportsTools reports whether the setup message may carry function
	// declarations.
	SupportsTools bool

	// InterruptOnSpeechStart treats a detected user speech start as a
	// barge-in. The event-stream dialect never sends an explicit
	// interrupted signal, so queued playback is cut off on speech
	// activity instead.
	InterruptOnSpeechStart bool

	dialect dialect
}

// GeminiLive is the turn/content dialect endpoint with tool-call support.
func GeminiLive() Backend {
	return Backend{
		Name:               "gemini-live",
		Model:              "models/gemini-2.0-flash-live-001",
		Voice:              "Puck",
		Path:               "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
		ResponseModalities: []protocol.Modality{protocol.ModalityAudio},
		SupportsTools:      true,
		dialect:            dialectGemini,
	}
}

// OmniRealtime is the event-stream dialect conversational endpoint.
func OmniRealtime() Backend {
	return Backend{
		Name:                   "omni-realtime",
		Model:                  "qwen3-omni-flash-realtime",
		Voice:                  "Cherry",
		Path:                   "/api-ws/realtime",
		ResponseModalities:     []protocol.Modality{protocol.ModalityText, protocol.ModalityAudio},
		InterruptOnSpeechStart: true,
		dialect:                dialectRealtime,
	}
}

// SpeechTranslation is the event-stream dialect live-translation endpoint.
// It translates spoken source-language audio into target-language speech.
func SpeechTranslation(sourceLanguage, targetLanguage string) Backend {
	return Backend{
		Name:                   "speech-translation",
		Model:                  "qwen3-livetranslate-flash-realtime",
		Path:                   "/api-ws/realtime",
		ResponseModalities:     []protocol.Modality{protocol.ModalityText, protocol.ModalityAudio},
		SourceLanguage:         sourceLanguage,
		TargetLanguage:         targetLanguage,
		InterruptOnSpeechStart: true,
		dialect:                dialectRealtime,
	}
}

func (b Backend) newCodec() protocol.Codec {
	if b.dialect == dialectRealtime {
		return protocol.NewRealtimeCodec()
	}
	return protocol.NewGeminiCodec()
}

// websocketURL builds the dial URL and headers for this backend. The two
// dialects authenticate differently: the turn/content dialect carries the
// key as a query parameter, the event-stream dialect as a bearer token.
func (b Backend) websocketURL(baseURL, model, apiKey string) (string, http.Header, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse websocket base url: %w", err)
	}
	parsed.Path = b.Path

	values := url.Values{}
	header := http.Header{}
	switch b.dialect {
	case dialectGemini:
		values.Set("key", apiKey)
	case dialectRealtime:
		values.Set("model", model)
		header.Set("Authorization", "Bearer "+apiKey)
	}
	parsed.RawQuery = values.Encode()

	return parsed.String(), header, nil
}
