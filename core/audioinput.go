package livesession

import (
	"context"
	"reflect"

	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/audio"
)

// AudioInput is a microphone capture client. Captured samples are delivered
// as float32 at the device's native rate; the engine resamples them to the
// protocol input rate before framing.
type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(samples []float32)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// audioInput normalizes the optional capture client behind a nil-safe
// facade so engine code does not branch on whether capture was configured.
type audioInput struct {
	base AudioInput
}

func newAudioInput(client AudioInput) *audioInput {
	input := audioInput{}
	input.Set(client)
	return &input
}

// Set replaces the configured capture client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioInput) Set(client AudioInput) {
	if a == nil {
		return
	}

	if isNilClient(client) {
		a.base = nil
		return
	}
	a.base = client
}

func (a *audioInput) isConfigured() bool {
	return a != nil && a.base != nil
}

func (a *audioInput) StartCapture(ctx context.Context, onAudio func(samples []float32)) error {
	if !a.isConfigured() {
		return nil
	}
	return a.base.StartCapture(ctx, onAudio)
}

func (a *audioInput) StopCapture() error {
	if !a.isConfigured() {
		return nil
	}
	return a.base.StopCapture()
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultInputEncodingInfo()
	}

	if info := a.base.EncodingInfo(); !info.IsZero() {
		return info
	}
	return audio.GetDefaultInputEncodingInfo()
}

// isNilClient detects nil and typed-nil interface values so Set does not
// store unusable interface wrappers as configured clients.
func isNilClient(client any) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
