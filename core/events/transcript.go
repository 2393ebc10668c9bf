package events

const (
	// KindTranscriptDelta identifies streamed assistant transcript text.
	KindTranscriptDelta Kind = "assistant.transcript_delta"
	// KindTranscriptDone identifies the end of the assistant transcript for
	// the current turn.
	KindTranscriptDone Kind = "assistant.transcript_done"
	// KindUserTranscript identifies a recognized transcription of user
	// speech.
	KindUserTranscript Kind = "user.transcript"
)

// TranscriptDelta carries an append-only assistant transcript segment.
type TranscriptDelta struct {
	Base
	Text string
}

// NewTranscriptDelta creates an assistant transcript delta event.
func NewTranscriptDelta(text string) TranscriptDelta {
	return TranscriptDelta{Base: NewBase(KindTranscriptDelta), Text: text}
}

// TranscriptDone marks the assistant transcript complete for the turn. Text
// carries the final segment when the dialect delivers one with the boundary,
// otherwise it is empty and the engine supplies the accumulated transcript.
type TranscriptDone struct {
	Base
	Text string
}

// NewTranscriptDone creates an assistant transcript completion event.
func NewTranscriptDone(text string) TranscriptDone {
	return TranscriptDone{Base: NewBase(KindTranscriptDone), Text: text}
}

// UserTranscript carries the recognized transcription of the user's speech.
type UserTranscript struct {
	Base
	Text string
}

// NewUserTranscript creates a user transcription event.
func NewUserTranscript(text string) UserTranscript {
	return UserTranscript{Base: NewBase(KindUserTranscript), Text: text}
}
