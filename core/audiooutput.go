package livesession

import (
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/audio"
)

// AudioOutput is a playback sink. It receives PCM16 mono bytes at the
// protocol output rate, already ordered by the playback scheduler, and is
// expected to play them back-to-back. ClearBuffer drops everything queued
// but not yet played.
type AudioOutput interface {
	SendAudio(audio []byte)
	ClearBuffer()
	EncodingInfo() audio.EncodingInfo
}

// audioOutput normalizes the optional playback client behind a nil-safe
// facade. Forwarding is best effort: playback is a side effect and its
// absence must not change session behavior.
type audioOutput struct {
	base AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	output := audioOutput{}
	output.Set(client)
	return &output
}

// Set replaces the configured playback client. Nil and typed-nil clients
// are treated as unconfigured.
func (a *audioOutput) Set(client AudioOutput) {
	if a == nil {
		return
	}

	if isNilClient(client) {
		a.base = nil
		return
	}
	a.base = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.base != nil
}

func (a *audioOutput) SendAudio(audio []byte) {
	if !a.isConfigured() {
		return
	}
	a.base.SendAudio(audio)
}

func (a *audioOutput) Clear() {
	if !a.isConfigured() {
		return
	}
	a.base.ClearBuffer()
}

func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultOutputEncodingInfo()
	}

	if info := a.base.EncodingInfo(); !info.IsZero() {
		return info
	}
	return audio.GetDefaultOutputEncodingInfo()
}
