package livesession

import (
	"fmt"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/events"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// newCallbackEventEmitter bridges the typed event stream to the callbacks
// registered at connect time. The dispatch loop is the only caller, so
// callbacks observe events in exactly the order they were decoded.
func newCallbackEventEmitter(opts connectOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.Connected:
			if opts.onConnected != nil {
				opts.onConnected()
			}
		case events.TranscriptDelta:
			if opts.onTranscriptDelta != nil {
				opts.onTranscriptDelta(typedEvent.Text)
			}
		case events.TranscriptDone:
			if opts.onTranscriptDone != nil {
				opts.onTranscriptDone(typedEvent.Text)
			}
		case events.UserTranscript:
			if opts.onUserTranscript != nil {
				opts.onUserTranscript(typedEvent.Text)
			}
		case events.AudioDelta:
			if opts.onAudioDelta != nil {
				opts.onAudioDelta(typedEvent.Audio)
			}
		case events.AudioDone:
			if opts.onAudioDone != nil {
				opts.onAudioDone()
			}
		case events.SpeechStarted:
			if opts.onSpeechActivity != nil {
				opts.onSpeechActivity(true)
			}
		case events.SpeechStopped:
			if opts.onSpeechActivity != nil {
				opts.onSpeechActivity(false)
			}
		case events.Error:
			if opts.onError != nil {
				opts.onError(fmt.Errorf("%w: %s", ErrServerReported, typedEvent.Message))
			}
		}
	}
}
