package storage

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// encodeBlob msgpack-encodes rec and compresses it with zstd.
func encodeBlob(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	if err := enc.Encode(rec); err != nil {
		zw.Close()
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeBlob reverses encodeBlob.
func decodeBlob(data []byte) (Record, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return Record{}, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	var rec Record
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("msgpack decode: %w", err)
	}
	return rec, nil
}
