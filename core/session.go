// Package livesession implements a real-time bidirectional audio session
// against a cloud live model speaking JSON over a websocket.
//
// A [Session] owns the connection state machine, the outbound send path
// (microphone audio, images, text, tool responses), the inbound dispatch
// path, and the playback buffering policy. Backend-specific wire handling
// lives in the protocol subpackage; the session is parameterized over it
// with a [Backend] value.
package livesession

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jinzhu/copier"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/audio"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type State string

const (
	StateDisconnected      State = "disconnected"
	StateConnecting        State = "connecting"
	StateAwaitingHandshake State = "awaiting handshake"
	StateReady             State = "ready"
	StateRecording         State = "recording"
	StateDisconnecting     State = "disconnecting"
)

const outboundQueueSize = 64

// wireConn is the subset of the websocket connection the session uses.
type wireConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type frameKind int

const (
	frameSetup frameKind = iota
	frameAudio
	frameImage
	frameText
	frameToolResponse
)

func (k frameKind) String() string {
	switch k {
	case frameSetup:
		return "setup"
	case frameAudio:
		return "audio"
	case frameImage:
		return "image"
	case frameText:
		return "text"
	case frameToolResponse:
		return "tool response"
	}
	return "unknown"
}

// outboundFrame is one queued send. Ownership of the payload transfers to
// the write loop; frames are never retried.
type outboundFrame struct {
	kind         frameKind
	payload      []byte
	text         string
	setup        protocol.SetupConfig
	toolResponse protocol.ToolResponse
}

type Session struct {
	backend  Backend
	provider config.Provider
	dialer   *websocket.Dialer
	dial     func(ctx context.Context, urlStr string, header http.Header) (wireConn, error)

	modelOverride      string
	voiceOverride      string
	systemInstructions string
	tools              []Tool
	playbackGate       PlaybackGate

	handshakeTimeout  time.Duration
	pollInterval      time.Duration
	waitCeiling       time.Duration
	playbackThreshold int

	audioInput  *audioInput
	audioOutput *audioOutput

	audioOutputEnabled atomic.Bool
	playbackEnabled    atomic.Bool
	isDisconnecting    atomic.Bool
	handshaked         atomic.Bool
	configSeq          atomic.Uint64

	// inCallback is set while a loop goroutine runs observer callbacks, so
	// Disconnect can tell when waiting for the loops would mean waiting on
	// the very goroutine it was called from.
	inCallback atomic.Bool

	mu        sync.Mutex
	state     State
	capturing bool
	conn      wireConn
	cancel    context.CancelFunc
	runCtx    context.Context
	outbound  chan outboundFrame

	// writeMu serializes socket writes between the write loop and the
	// close frame sent on teardown.
	writeMu sync.Mutex

	codec        protocol.Codec
	loops        sync.WaitGroup
	handshakeAck chan struct{}
	failOnce     *sync.Once
	resampler    *audio.Resampler

	// turnTranscript accumulates assistant transcript deltas; only the
	// dispatch loop touches it while the session is live.
	turnTranscript string

	scheduler *playbackScheduler
	ledger    *toolCallLedger
	callbacks connectOptions
	emit      eventEmitter
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		backend:           GeminiLive(),
		dialer:            websocket.DefaultDialer,
		handshakeTimeout:  10 * time.Second,
		pollInterval:      500 * time.Millisecond,
		waitCeiling:       10 * time.Second,
		playbackThreshold: 2,
		state:             StateDisconnected,
		ledger:            newToolCallLedger(),
		failOnce:          &sync.Once{},
		emit:              noopEventEmitter,
		audioInput:        newAudioInput(nil),
		audioOutput:       newAudioOutput(nil),
	}
	s.audioOutputEnabled.Store(true)
	s.playbackEnabled.Store(true)
	s.dial = func(ctx context.Context, urlStr string, header http.Header) (wireConn, error) {
		conn, _, err := s.dialer.DialContext(ctx, urlStr, header)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	for _, opt := range opts {
		opt(s)
	}

	s.scheduler = newPlaybackScheduler(s.playbackThreshold,
		func(pcm []byte) { s.audioOutput.SendAudio(pcm) },
		func() { s.audioOutput.Clear() },
	)

	return s
}

// Connect resolves the credential, dials the backend, sends the
// session-configuration message, and blocks until the server acknowledges
// it or the handshake timeout expires. Exactly one socket is opened per
// successful call; at most one connection is active per session.
func (s *Session) Connect(ctx context.Context, opts ...ConnectOption) error {
	ctx, span := tracer.Start(ctx, "connect live session",
		trace.WithAttributes(attribute.String("backend", s.backend.Name)))
	defer span.End()

	s.mu.Lock()
	if s.state != StateDisconnected {
		state := s.state
		s.mu.Unlock()
		return s.recordConnectError(span, fmt.Errorf("%w: session already %s", ErrConnectFailed, state))
	}
	s.state = StateConnecting
	s.mu.Unlock()

	options := connectOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.callbacks = options
	s.emit = newCallbackEventEmitter(options)

	s.isDisconnecting.Store(false)
	s.handshaked.Store(false)
	s.failOnce = &sync.Once{}
	s.handshakeAck = make(chan struct{})
	s.turnTranscript = ""
	s.ledger.reset()

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.runCtx = runCtx
	s.mu.Unlock()

	apiKey, err := awaitCredential(runCtx, s.provider, s.pollInterval, s.waitCeiling)
	if err != nil {
		return s.abortConnect(span, err)
	}

	model := s.resolveModel()
	urlStr, header, err := s.backend.websocketURL(s.provider.WebsocketBaseURL(), model, apiKey)
	if err != nil {
		return s.abortConnect(span, fmt.Errorf("%w: %w", ErrConnectFailed, err))
	}

	conn, err := s.dial(runCtx, urlStr, header)
	if err != nil {
		return s.abortConnect(span, fmt.Errorf("%w: %w", ErrConnectFailed, err))
	}

	codec := s.backend.newCodec()
	setup, err := codec.EncodeSetup(s.buildSetupConfig(model))
	if err != nil {
		_ = conn.Close()
		return s.abortConnect(span, fmt.Errorf("%w: failed to encode session configuration: %w", ErrConnectFailed, err))
	}

	s.mu.Lock()
	s.conn = conn
	s.codec = codec
	s.outbound = make(chan outboundFrame, outboundQueueSize)
	outbound := s.outbound
	s.state = StateAwaitingHandshake
	s.mu.Unlock()

	s.configSeq.Add(1)

	s.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, setup)
	s.writeMu.Unlock()
	if err != nil {
		_ = conn.Close()
		return s.abortConnect(span, fmt.Errorf("%w: failed to send session configuration: %w", ErrConnectFailed, err))
	}

	s.loops.Add(2)
	go s.writeLoop(runCtx, conn, outbound)
	go s.readLoop(runCtx, conn)
	go func() {
		// A cancelled context must also abort the blocked read;
		// teardown-initiated cancellation closes the socket itself.
		<-runCtx.Done()
		if s.isDisconnecting.Load() {
			return
		}
		_ = conn.Close()
	}()

	select {
	case <-s.handshakeAck:
	case <-time.After(s.handshakeTimeout):
		err := fmt.Errorf("%w after %s", ErrHandshakeTimeout, s.handshakeTimeout)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.Disconnect()
		return err
	case <-runCtx.Done():
		s.Disconnect()
		return s.recordConnectError(span, fmt.Errorf("%w: %w", ErrConnectFailed, runCtx.Err()))
	}

	return nil
}

func (s *Session) recordConnectError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// abortConnect unwinds a half-finished connection attempt back to the
// disconnected state.
func (s *Session) abortConnect(span trace.Span, err error) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = nil
	s.runCtx = nil
	s.conn = nil
	s.outbound = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	return s.recordConnectError(span, err)
}

// Disconnect tears the session down: it cancels in-flight connect polling,
// closes the socket (aborting the blocked read), stops capture, and drops
// all ephemeral state. It is idempotent and safe to call from any state,
// including from inside an observer callback; no events are dispatched
// after it returns.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateDisconnecting {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnecting
	conn := s.conn
	cancel := s.cancel
	capturing := s.capturing
	s.capturing = false
	s.mu.Unlock()

	s.isDisconnecting.Store(true)
	s.handshaked.Store(false)

	if cancel != nil {
		cancel()
	}

	if capturing {
		if err := s.audioInput.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
	}

	if conn != nil {
		s.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		_ = conn.Close()
	}

	// An observer callback may itself call Disconnect; it runs on the read
	// loop, which cannot wait for its own exit. Hand the wait off instead
	// of deadlocking. Events decoded in the meantime are dropped by the
	// dispatch guard, so nothing reaches the callbacks either way.
	if s.inCallback.Load() {
		go s.finishDisconnect()
		return
	}
	s.finishDisconnect()
}

func (s *Session) finishDisconnect() {
	s.loops.Wait()

	s.scheduler.Reset()
	s.ledger.reset()
	s.turnTranscript = ""

	s.mu.Lock()
	s.conn = nil
	s.cancel = nil
	s.runCtx = nil
	s.outbound = nil
	s.state = StateDisconnected
	s.mu.Unlock()
}

// StartRecording begins microphone capture. Captured audio is resampled to
// the protocol input rate and framed for sending; frames produced before
// the handshake acknowledgment are dropped, not queued.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	switch s.state {
	case StateAwaitingHandshake, StateReady, StateRecording:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot start recording while %s", state)
	}
	if s.capturing {
		s.mu.Unlock()
		return nil
	}
	s.capturing = true
	if s.state == StateReady {
		s.state = StateRecording
	}
	runCtx := s.runCtx
	s.mu.Unlock()

	resampler, err := audio.NewResampler(s.audioInput.EncodingInfo().SampleRate, audio.DefaultInputSampleRate)
	if err != nil {
		s.abortRecording()
		return fmt.Errorf("failed to create capture resampler: %w", err)
	}
	s.resampler = resampler

	if err := s.audioInput.StartCapture(runCtx, s.onCapturedAudio); err != nil {
		s.abortRecording()
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	return nil
}

func (s *Session) abortRecording() {
	s.mu.Lock()
	s.capturing = false
	if s.state == StateRecording {
		s.state = StateReady
	}
	s.mu.Unlock()
}

func (s *Session) StopRecording() error {
	s.mu.Lock()
	if !s.capturing {
		s.mu.Unlock()
		return nil
	}
	s.capturing = false
	if s.state == StateRecording {
		s.state = StateReady
	}
	s.mu.Unlock()

	if err := s.audioInput.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop audio capture: %w", err)
	}
	return nil
}

// onCapturedAudio runs on the capture callback cadence and must never
// block: it resamples, encodes, and enqueues, reporting nothing to the
// caller.
func (s *Session) onCapturedAudio(samples []float32) {
	if !s.handshaked.Load() {
		return
	}

	resampled := s.resampler.Resample(samples)
	if len(resampled) == 0 {
		return
	}

	s.enqueueFrame(outboundFrame{kind: frameAudio, payload: audio.EncodePCM16(resampled)})
}

// SendImage queues one JPEG frame for the model. Fire and forget: send
// failures surface through the error callback. Images sent before the
// handshake acknowledgment are dropped.
func (s *Session) SendImage(jpeg []byte) {
	if !s.handshaked.Load() {
		logger.Debug("dropping image frame before handshake acknowledgment")
		return
	}
	s.enqueueFrame(outboundFrame{kind: frameImage, payload: jpeg})
}

// SendText queues a typed user turn. Text sent before the handshake
// acknowledgment is dropped.
func (s *Session) SendText(text string) {
	if !s.handshaked.Load() {
		logger.Debug("dropping text turn before handshake acknowledgment")
		return
	}
	s.enqueueFrame(outboundFrame{kind: frameText, text: text})
}

// Reconfigure applies options and, when the session is live, resends the
// session-configuration message without reconnecting. The wire protocol has
// no atomic configuration swap: until the server acknowledges the new
// configuration, decoded output still belongs to the previous one.
// ConfigVersion increments with every configuration send so callers can
// correlate output with configurations.
func (s *Session) Reconfigure(opts ...SessionOption) {
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	live := s.state == StateAwaitingHandshake || s.state == StateReady || s.state == StateRecording
	s.mu.Unlock()
	if !live {
		return
	}

	setup := s.buildSetupConfig(s.resolveModel())
	snapshot := protocol.SetupConfig{}
	if err := copier.Copy(&snapshot, &setup); err != nil {
		snapshot = setup
	}

	seq := s.configSeq.Add(1)
	logger.Debug("resending session configuration", "config_version", seq)
	s.enqueueFrame(outboundFrame{kind: frameSetup, setup: snapshot})
}

// SetAudioOutputEnabled toggles whether assistant audio reaches the
// playback scheduler. Disabling drops queued audio immediately; transcript
// and audio callbacks keep firing either way.
func (s *Session) SetAudioOutputEnabled(enabled bool) {
	s.audioOutputEnabled.Store(enabled)
	if !enabled {
		s.scheduler.Reset()
	}
}

// SetPlaybackEnabled gates playback scheduling independently of the
// output-enabled flag, e.g. while another audio source owns the route.
func (s *Session) SetPlaybackEnabled(enabled bool) {
	s.playbackEnabled.Store(enabled)
	if !enabled {
		s.scheduler.Reset()
	}
}

// SuspendForExternalPlayback yields the audio route: playback scheduling is
// disabled, queued audio dropped, and the configured gate notified. The
// engine owns no routing policy beyond this call.
func (s *Session) SuspendForExternalPlayback() error {
	s.playbackEnabled.Store(false)
	s.scheduler.Reset()

	if s.playbackGate == nil {
		return nil
	}
	if err := s.playbackGate.SuspendForExternalPlayback(); err != nil {
		return fmt.Errorf("failed to suspend for external playback: %w", err)
	}
	return nil
}

// Resume re-enables playback scheduling after external playback finished.
func (s *Session) Resume() error {
	s.playbackEnabled.Store(true)

	if s.playbackGate == nil {
		return nil
	}
	if err := s.playbackGate.Resume(); err != nil {
		return fmt.Errorf("failed to resume after external playback: %w", err)
	}
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

// ConfigVersion returns the sequence number of the most recently sent
// session configuration.
func (s *Session) ConfigVersion() uint64 {
	return s.configSeq.Load()
}

func (s *Session) resolveModel() string {
	if s.modelOverride != "" {
		return s.modelOverride
	}
	if s.provider != nil {
		if model := s.provider.DefaultModel(); model != "" {
			return model
		}
	}
	return s.backend.Model
}

func (s *Session) buildSetupConfig(model string) protocol.SetupConfig {
	voice := s.voiceOverride
	if voice == "" {
		voice = s.backend.Voice
	}

	return protocol.SetupConfig{
		Model:              model,
		Voice:              voice,
		SystemInstructions: s.systemInstructions,
		ResponseModalities: s.backend.ResponseModalities,
		InputSampleRate:    audio.DefaultInputSampleRate,
		SourceLanguage:     s.backend.SourceLanguage,
		TargetLanguage:     s.backend.TargetLanguage,
		Tools:              s.toolDeclarations(),
	}
}

// enqueueFrame hands a frame to the write loop without blocking the
// caller. A full queue drops the frame: capture cadence must never stall on
// network backpressure.
func (s *Session) enqueueFrame(frame outboundFrame) {
	s.mu.Lock()
	outbound := s.outbound
	s.mu.Unlock()
	if outbound == nil {
		return
	}

	select {
	case outbound <- frame:
	default:
		logger.Warn("outbound queue full, dropping frame", "kind", frame.kind.String())
	}
}

func (s *Session) encodeFrame(frame outboundFrame) ([]byte, error) {
	switch frame.kind {
	case frameSetup:
		return s.codec.EncodeSetup(frame.setup)
	case frameAudio:
		return s.codec.EncodeAudio(frame.payload)
	case frameImage:
		return s.codec.EncodeImage(frame.payload)
	case frameText:
		return s.codec.EncodeText(frame.text)
	case frameToolResponse:
		return s.codec.EncodeToolResponse(frame.toolResponse)
	}
	return nil, fmt.Errorf("unknown outbound frame kind %d", frame.kind)
}

func (s *Session) writeLoop(ctx context.Context, conn wireConn, outbound <-chan outboundFrame) {
	defer s.loops.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-outbound:
			raw, err := s.encodeFrame(frame)
			if err != nil {
				logger.Warn("dropping unencodable outbound frame",
					"kind", frame.kind.String(), "error", err)
				continue
			}

			s.writeMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, raw)
			s.writeMu.Unlock()
			if err != nil {
				if s.isDisconnecting.Load() {
					return
				}
				s.fail(fmt.Errorf("%w: %w", ErrSendFailed, err))
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context, conn wireConn) {
	defer s.loops.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Reads aborted by our own teardown are expected noise, as
			// is a clean close from the server.
			if s.isDisconnecting.Load() ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.fail(fmt.Errorf("%w: %w", ErrReceiveFailed, err))
			return
		}

		decoded, err := s.codec.Decode(raw)
		if err != nil {
			// One malformed message must not terminate the session.
			logger.Warn("dropping undecodable server message", "error", err)
			continue
		}

		for _, event := range decoded {
			s.inCallback.Store(true)
			s.dispatch(ctx, event)
			s.inCallback.Store(false)
		}
	}
}

// dispatch handles one decoded event. The read loop is the single caller,
// which is what serializes all mutation of turn and playback state.
func (s *Session) dispatch(ctx context.Context, event events.Event) {
	// Teardown may have started while this message was in flight; nothing
	// is dispatched past that point.
	if s.isDisconnecting.Load() {
		return
	}

	switch typedEvent := event.(type) {
	case events.Connected:
		s.handshaked.Store(true)
		s.mu.Lock()
		if s.state == StateAwaitingHandshake {
			s.state = StateReady
		}
		s.mu.Unlock()
		select {
		case <-s.handshakeAck:
		default:
			close(s.handshakeAck)
		}
		s.emit(event)

	case events.TranscriptDelta:
		s.turnTranscript += typedEvent.Text
		s.emit(event)

	case events.TranscriptDone:
		text := typedEvent.Text
		if text == "" {
			text = s.turnTranscript
		}
		s.turnTranscript = ""
		s.ledger.reset()
		s.emit(events.NewTranscriptDone(text))

	case events.AudioDelta:
		s.emit(event)
		if s.audioOutputEnabled.Load() && s.playbackEnabled.Load() {
			s.scheduler.Push(typedEvent.Audio)
		}

	case events.AudioDone:
		s.scheduler.Flush()
		s.emit(event)

	case events.Interrupted:
		// Barge-in: queued assistant speech must not continue playing.
		s.scheduler.Reset()
		s.turnTranscript = ""

	case events.SpeechStarted:
		if s.backend.InterruptOnSpeechStart {
			s.scheduler.Reset()
			s.turnTranscript = ""
		}
		s.emit(event)

	case events.ToolCall:
		s.dispatchToolCall(ctx, typedEvent)

	default:
		s.emit(event)
	}
}

func (s *Session) dispatchToolCall(ctx context.Context, call events.ToolCall) {
	tool, ok := s.toolByName(call.Name)
	if !ok {
		logger.Warn("no handler registered for tool call",
			"tool", call.Name, "error", ErrUnsupportedToolCall)
		s.enqueueFrame(outboundFrame{
			kind: frameToolResponse,
			toolResponse: protocol.ToolResponse{
				ID:     call.ID,
				Name:   call.Name,
				Result: map[string]any{"success": false, "error": "Unknown function name"},
			},
		})
		return
	}

	s.ledger.track(call.ID, call.Name)

	// Handlers run off the dispatch loop so a slow tool cannot stall the
	// receive cycle.
	go func() {
		ctx, span := tracer.Start(ctx, "execute tool",
			trace.WithAttributes(attribute.String("tool.name", call.Name)))
		defer span.End()

		result, err := tool.Handler(ctx, call.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", call.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			if s.ledger.settle(call.ID) {
				s.enqueueFrame(outboundFrame{
					kind: frameToolResponse,
					toolResponse: protocol.ToolResponse{
						ID:     call.ID,
						Name:   call.Name,
						Result: map[string]any{"success": false, "error": err.Error()},
					},
				})
			}
			return
		}

		// The turn may have ended while the handler ran; a stale
		// response must not be sent.
		if !s.ledger.settle(call.ID) {
			return
		}

		payload := result.Payload
		if payload == nil {
			payload = map[string]any{"success": true}
		}
		if result.Silent {
			payload = map[string]any{"output": payload, "silent": true}
		}

		s.enqueueFrame(outboundFrame{
			kind:         frameToolResponse,
			toolResponse: protocol.ToolResponse{ID: call.ID, Name: call.Name, Result: payload},
		})

		if s.callbacks.onToolResult != nil {
			s.callbacks.onToolResult(call.Name, result.Payload)
		}
	}()
}

// fail surfaces a terminal transport error exactly once and tears the
// session down. Failures during teardown are suppressed as expected noise.
func (s *Session) fail(err error) {
	if s.isDisconnecting.Load() {
		return
	}

	s.failOnce.Do(func() {
		logger.Error("live session failed", "error", err)
		if s.callbacks.onError != nil {
			s.inCallback.Store(true)
			s.callbacks.onError(err)
			s.inCallback.Store(false)
		}
		go s.Disconnect()
	})
}
