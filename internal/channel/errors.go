package channel

import "errors"

var (
	// ErrConfiguration reports missing or invalid channel setup. It is fatal
	// at startup.
	ErrConfiguration = errors.New("channel configuration error")
	// ErrResolution reports a tenant, conversation or platform id that could
	// not be resolved.
	ErrResolution = errors.New("channel resolution error")
	// ErrDelivery reports a failed platform call made by a sender.
	ErrDelivery = errors.New("channel delivery error")
	// ErrMalformedEvent reports an inbound event that could not be decoded.
	// Listeners log and discard such events.
	ErrMalformedEvent = errors.New("malformed inbound event")

	// ErrAlreadySetup is returned by a second Connect call.
	ErrAlreadySetup = errors.New("channel already set up")
	// ErrNotListening is returned by Send before setup completed.
	ErrNotListening = errors.New("channel is not listening")
)
