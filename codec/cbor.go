package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions tunes the CBOR codec.
type CBOROptions struct {
	// Deterministic selects RFC 8949 Core Deterministic encoding: equal values
	// encode to equal bytes. Otherwise map keys are written unsorted.
	Deterministic bool

	// Strict rejects duplicate map keys and fields unknown to V on decode.
	Strict bool
}

// CBOR serializes values using fxamacker/cbor. Times are RFC3339Nano strings.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](o CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if o.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}

	var do cbor.DecOptions
	if o.Strict {
		do.DupMapKey = cbor.DupMapKeyEnforcedAPF
		do.ExtraReturnErrors = cbor.ExtraDecErrorUnknownField
	}
	dm, err := do.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics on error, for package-level vars and tests.
func MustCBOR[V any](o CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](o)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
