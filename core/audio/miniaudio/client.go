// Package miniaudio provides microphone capture and speaker playback on top
// of malgo (miniaudio bindings). A single Client owns the malgo context and
// exposes one capture and one playback device suitable for a live session.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	capture  captureClient
	playback playbackClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playback.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playback.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.capture.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Input returns the capture side of the client. The session resamples its
// samples from the device rate to the protocol rate.
func (c *Client) Input() *captureClient {
	return &c.capture
}

// Output returns the playback side of the client.
func (c *Client) Output() *playbackClient {
	return &c.playback
}

func (c *Client) Close() {
	_ = c.capture.Uninit()
	_ = c.playback.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
