package pnwkit

import "errors"

// Sentinel error kinds. Call sites wrap these with fmt.Errorf("...: %w", Err*)
// so errors.Is still matches after a message is attached.
var (
	// ErrValidation marks a malformed Query or Variables set caught before
	// any network traffic is sent.
	ErrValidation = errors.New("validation error")

	// ErrTransport marks a failure to send or receive an HTTP request, or a
	// WebSocket I/O failure.
	ErrTransport = errors.New("transport error")

	// ErrProtocol marks a malformed {data, errors} envelope: a body that
	// is not valid JSON, or one with no data. The HTTP status is not
	// checked apart from 429, which is retried; a 429 on every attempt
	// ends in the ErrTransport max-retries error.
	ErrProtocol = errors.New("protocol error")

	// ErrSemantic marks a successful HTTP round trip whose envelope
	// carried a non-empty GraphQL "errors" array.
	ErrSemantic = errors.New("semantic error")

	// ErrTimeout marks a subscribe() whose subscription_succeeded
	// acknowledgement did not arrive before its deadline. A missed pong
	// returns no error; the socket reconnects instead.
	ErrTimeout = errors.New("timeout error")

	// ErrTerminal names a fatal socket close: a close frame carrying a
	// Pusher close code in 4000-4099, or a disconnect with no close frame.
	// The socket does not reconnect in that case. It is only written into
	// the Config.Logf log line; no call returns it to the caller.
	ErrTerminal = errors.New("terminal error")
)
