package livesession

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"
)

type SessionOption func(*Session)

// WithBackend selects which live endpoint the session speaks to. The
// backend fixes the wire dialect for the lifetime of the session; passing a
// backend with a different dialect to [Session.Reconfigure] is not
// supported.
func WithBackend(backend Backend) SessionOption {
	return func(s *Session) { s.backend = backend }
}

// WithConfigProvider injects the credential and endpoint source.
func WithConfigProvider(provider config.Provider) SessionOption {
	return func(s *Session) { s.provider = provider }
}

// WithModel overrides the backend's default model id.
func WithModel(model string) SessionOption {
	return func(s *Session) { s.modelOverride = model }
}

// WithVoice overrides the backend's default voice.
func WithVoice(voice string) SessionOption {
	return func(s *Session) { s.voiceOverride = voice }
}

func WithSystemInstructions(instructions string) SessionOption {
	return func(s *Session) { s.systemInstructions = instructions }
}

// WithTools registers function-call handlers. Declarations are only
// advertised on backends that support tools.
func WithTools(tools ...Tool) SessionOption {
	return func(s *Session) { s.tools = append(s.tools, tools...) }
}

func WithAudioInput(client AudioInput) SessionOption {
	return func(s *Session) { s.audioInput.Set(client) }
}

func WithAudioOutput(client AudioOutput) SessionOption {
	return func(s *Session) { s.audioOutput.Set(client) }
}

// PlaybackGate is a platform capability for yielding the audio route to
// external playback. The engine calls it around suspension but owns no
// routing policy.
type PlaybackGate interface {
	SuspendForExternalPlayback() error
	Resume() error
}

func WithPlaybackGate(gate PlaybackGate) SessionOption {
	return func(s *Session) { s.playbackGate = gate }
}

// WithDialer replaces the websocket dialer, e.g. to configure a proxy.
func WithDialer(dialer *websocket.Dialer) SessionOption {
	return func(s *Session) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

// WithHandshakeTimeout bounds how long Connect waits for the server to
// acknowledge the session configuration.
func WithHandshakeTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if timeout > 0 {
			s.handshakeTimeout = timeout
		}
	}
}

// WithPlaybackThreshold sets how many audio chunks are collected before the
// first scheduling of a turn.
func WithPlaybackThreshold(chunks int) SessionOption {
	return func(s *Session) {
		if chunks > 0 {
			s.playbackThreshold = chunks
		}
	}
}

type connectOptions struct {
	onConnected       func()
	onTranscriptDelta func(text string)
	onTranscriptDone  func(text string)
	onUserTranscript  func(text string)
	onAudioDelta      func(audio []byte)
	onAudioDone       func()
	onSpeechActivity  func(speaking bool)
	onError           func(err error)
	onToolResult      func(name string, payload any)
}

type ConnectOption func(*connectOptions)

// WithConnectedCallback registers a callback for the server's handshake
// acknowledgment, including acknowledgments of mid-session
// reconfigurations.
func WithConnectedCallback(callback func()) ConnectOption {
	return func(o *connectOptions) { o.onConnected = callback }
}

// WithTranscriptCallback registers a callback for streamed assistant
// transcript segments, in arrival order.
func WithTranscriptCallback(callback func(text string)) ConnectOption {
	return func(o *connectOptions) { o.onTranscriptDelta = callback }
}

// WithTranscriptDoneCallback registers a callback for the complete
// assistant transcript of a finished turn.
func WithTranscriptDoneCallback(callback func(text string)) ConnectOption {
	return func(o *connectOptions) { o.onTranscriptDone = callback }
}

// WithUserTranscriptCallback registers a callback for recognized
// transcriptions of the user's own speech.
func WithUserTranscriptCallback(callback func(text string)) ConnectOption {
	return func(o *connectOptions) { o.onUserTranscript = callback }
}

// WithAudioCallback registers a callback for assistant speech frames
// (PCM16 mono at the protocol output rate). Frames are delivered regardless
// of whether playback is enabled.
func WithAudioCallback(callback func(audio []byte)) ConnectOption {
	return func(o *connectOptions) { o.onAudioDelta = callback }
}

func WithAudioDoneCallback(callback func()) ConnectOption {
	return func(o *connectOptions) { o.onAudioDone = callback }
}

// WithSpeechActivityCallback registers a callback for detected user speech
// boundaries on backends with server-side voice activity detection.
func WithSpeechActivityCallback(callback func(speaking bool)) ConnectOption {
	return func(o *connectOptions) { o.onSpeechActivity = callback }
}

// WithErrorCallback registers the single error surface of the session:
// server-reported errors and terminal transport failures are delivered
// here, each at most once.
func WithErrorCallback(callback func(err error)) ConnectOption {
	return func(o *connectOptions) { o.onError = callback }
}

// WithToolResultCallback registers a callback invoked after a tool handler
// completed and its response was queued for the backend.
func WithToolResultCallback(callback func(name string, payload any)) ConnectOption {
	return func(o *connectOptions) { o.onToolResult = callback }
}
