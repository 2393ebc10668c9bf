package livesession

import "errors"

// Session failure taxonomy. Errors returned by [Session] methods and
// delivered through the error callback wrap one of these sentinels, so
// callers can classify failures with [errors.Is].
var (
	// ErrMissingCredential reports that no API key is available and the
	// provider does not expect one to become available.
	ErrMissingCredential = errors.New("missing api credential")
	// ErrConnectFailed reports a failed connection attempt, including a
	// credential wait that reached its ceiling.
	ErrConnectFailed = errors.New("connect failed")
	// ErrHandshakeTimeout reports that the server never acknowledged the
	// session-configuration message.
	ErrHandshakeTimeout = errors.New("handshake timed out")
	// ErrSendFailed reports a failed outbound write.
	ErrSendFailed = errors.New("send failed")
	// ErrReceiveFailed reports a failed socket read outside of teardown.
	ErrReceiveFailed = errors.New("receive failed")
	// ErrUnsupportedToolCall reports a function call for which no handler
	// is registered.
	ErrUnsupportedToolCall = errors.New("unsupported tool call")
	// ErrServerReported wraps a human-readable error message sent by the
	// backend itself.
	ErrServerReported = errors.New("server reported error")
)
