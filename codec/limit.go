package codec

import "fmt"

// TooLargeError is returned by Limit.Decode for payloads over the limit.
type TooLargeError struct {
	Size, Max int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: payload too large: %d > %d", e.Size, e.Max)
}

// Limit wraps another codec and refuses to decode payloads longer than MaxDecode bytes.
// Encode is forwarded unchanged. MaxDecode <= 0 disables the check.
//
// Use it when the backing store is shared and could hold oversized values.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, &TooLargeError{Size: len(b), Max: c.MaxDecode}
	}
	return c.Inner.Decode(b)
}
