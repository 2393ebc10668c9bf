package events

const (
	// KindAudioDelta identifies a streamed assistant speech frame.
	KindAudioDelta Kind = "assistant.audio_delta"
	// KindAudioDone identifies the end of assistant speech for the current
	// turn.
	KindAudioDone Kind = "assistant.audio_done"
	// KindSpeechStarted identifies detected user speech activity start.
	KindSpeechStarted Kind = "user.speech_started"
	// KindSpeechStopped identifies detected user speech activity end.
	KindSpeechStopped Kind = "user.speech_stopped"
)

// AudioDelta carries one decoded PCM16 assistant speech frame at the
// protocol output rate.
type AudioDelta struct {
	Base
	Audio []byte
}

// NewAudioDelta creates an assistant speech frame event.
func NewAudioDelta(audio []byte) AudioDelta {
	return AudioDelta{Base: NewBase(KindAudioDelta), Audio: audio}
}

// AudioDone marks the end of assistant speech for the turn.
type AudioDone struct {
	Base
}

// NewAudioDone creates an assistant speech completion event.
func NewAudioDone() AudioDone {
	return AudioDone{Base: NewBase(KindAudioDone)}
}

// SpeechStarted marks detected user speech activity.
type SpeechStarted struct {
	Base
}

// NewSpeechStarted creates a user speech start event.
func NewSpeechStarted() SpeechStarted {
	return SpeechStarted{Base: NewBase(KindSpeechStarted)}
}

// SpeechStopped marks the end of detected user speech activity.
type SpeechStopped struct {
	Base
}

// NewSpeechStopped creates a user speech stop event.
func NewSpeechStopped() SpeechStopped {
	return SpeechStopped{Base: NewBase(KindSpeechStopped)}
}
