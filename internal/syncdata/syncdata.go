// Package syncdata frames the aggregate a sync node emits: the payloads of
// every contributing pipeline instance for one slot, in instance order.
package syncdata

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode frames values into one payload.
func Encode(values [][]byte) ([]byte, error) {
	if values == nil {
		values = [][]byte{}
	}
	b, err := msgpack.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding sync aggregate: %w", err)
	}
	return b, nil
}

// Decode splits a payload produced by Encode.
func Decode(b []byte) ([][]byte, error) {
	var values [][]byte
	if err := msgpack.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("decoding sync aggregate: %w", err)
	}
	if values == nil {
		values = [][]byte{}
	}
	return values, nil
}
