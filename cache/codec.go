package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes a value for storage. Struct fields honour their json tags.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode restores a value written by Encode into dest, which must be a pointer.
func Decode(data []byte, dest any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(dest)
}

// Value is an encoded cache payload as returned by Store.MGet.
type Value []byte

// Decode restores the payload into dest.
func (v Value) Decode(dest any) error {
	return Decode(v, dest)
}
