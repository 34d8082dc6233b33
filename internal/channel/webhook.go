package channel

import (
	"errors"
	"fmt"
	"io"
)

// MaxWebhookBodyBytes caps inbound webhook bodies.
const MaxWebhookBodyBytes int64 = 1 << 20 // 1 MiB

// ErrBodyTooLarge is returned by ReadWebhookBody for oversized bodies.
var ErrBodyTooLarge = errors.New("webhook body too large")

// ReadWebhookBody reads at most MaxWebhookBodyBytes from r.
func ReadWebhookBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxWebhookBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > MaxWebhookBodyBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, MaxWebhookBodyBytes)
	}
	return body, nil
}
