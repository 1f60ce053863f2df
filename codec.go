package cosmo

import (
	"encoding/json"
	"fmt"
)

// PayloadCodec defines how opaque payload and metadata values cross the
// boundary to a backend that serializes them (SQL). The in-memory
// backend holds Payload and Meta natively and needs no codec; the SQL
// backend requires a symmetric encode/decode round-trip.
type PayloadCodec[P any, M any] interface {
	EncodeData(P) ([]byte, error)
	DecodeData([]byte) (P, error)
	EncodeMetadata(*M) ([]byte, error)
	DecodeMetadata([]byte) (*M, error)
}

// JSONCodec is the default PayloadCodec, round-tripping payload and
// metadata through encoding/json.
type JSONCodec[P any, M any] struct{}

func (JSONCodec[P, M]) EncodeData(v P) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cosmo: failed to encode event data: %w", err)
	}
	return b, nil
}

func (JSONCodec[P, M]) DecodeData(b []byte) (P, error) {
	var v P
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("cosmo: failed to decode event data: %w", err)
	}
	return v, nil
}

func (JSONCodec[P, M]) EncodeMetadata(m *M) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("cosmo: failed to encode event metadata: %w", err)
	}
	return b, nil
}

func (JSONCodec[P, M]) DecodeMetadata(b []byte) (*M, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m M
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("cosmo: failed to decode event metadata: %w", err)
	}
	return &m, nil
}
