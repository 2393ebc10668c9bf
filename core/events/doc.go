// Package events defines the typed live-session event contract.
//
// Every message a live backend sends is normalized into one of these events
// before the engine sees it, regardless of which wire dialect produced it.
// Event kinds are grouped by namespace:
//
//   - session.*: connection lifecycle and server-reported failures.
//   - assistant.*: model output (transcript text and speech audio).
//   - user.*: recognized user activity (speech boundaries, transcription).
//   - tool_call.*: function-call requests from the model.
//
// Semantics used across the package:
//
//   - Delta: append-only streamed piece, emitted in arrival order.
//   - Done: terminal boundary for the current stream/turn phase.
//   - Frame: binary PCM16 audio payload.
package events
