// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package payload compresses stored output logs.
//
// A Payload records the format its data was compressed with and the
// length of the original data, so it can be decompressed and checked
// without outside information.
package payload

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// A Format is a compression format.
type Format int

const (
	Raw Format = iota
	Zip
	LZ4
	Zstd

	numFormats = iota
)

var formatNames = [numFormats]string{"RAW", "ZIP", "LZ4", "ZSTD"}

func (f Format) String() string {
	if f < 0 || f >= numFormats {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat returns the format with the given name, such as "LZ4".
func ParseFormat(name string) (Format, error) {
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return 0, errors.Errorf("unsupported compression format %q", name)
}

func (f Format) MarshalText() ([]byte, error) {
	if f < 0 || f >= numFormats {
		return nil, errors.Errorf("invalid compression format %d", int(f))
	}
	return []byte(formatNames[f]), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// A Payload is compressed data.
type Payload struct {
	Data           []byte
	Format         Format
	OriginalLength int
}

// RawPayload returns an uncompressed payload holding data.
func RawPayload(data []byte) Payload {
	return Payload{Data: data, Format: Raw, OriginalLength: len(data)}
}

func (p Payload) String() string {
	return fmt.Sprintf("Payload{format=%s, originalLength=%d}", p.Format, p.OriginalLength)
}

// A Codec compresses and decompresses payloads of one format.
type Codec interface {
	Format() Format
	Compress(data []byte) (Payload, error)
	Decompress(p Payload) ([]byte, error)
}

// ServiceFor returns the Codec of format f.
func ServiceFor(f Format) (Codec, error) {
	switch f {
	case Raw:
		return &codec{f, rawCompress, rawDecompress}, nil
	case Zip:
		return &codec{f, zipCompress, zipDecompress}, nil
	case LZ4:
		return &codec{f, lz4Compress, lz4Decompress}, nil
	case Zstd:
		return &codec{f, zstdCompress, zstdDecompress}, nil
	}
	return nil, errors.Errorf("unsupported compression format %s", f)
}

// Decompress decompresses p with the codec of its format.
func Decompress(p Payload) ([]byte, error) {
	c, err := ServiceFor(p.Format)
	if err != nil {
		return nil, err
	}
	return c.Decompress(p)
}

type codec struct {
	format     Format
	compress   func([]byte) ([]byte, error)
	decompress func([]byte) ([]byte, error)
}

func (c *codec) Format() Format {
	return c.format
}

func (c *codec) Compress(data []byte) (Payload, error) {
	out, err := c.compress(data)
	if err != nil {
		return Payload{}, errors.Wrapf(err, "compressing %s", c.format)
	}
	return Payload{Data: out, Format: c.format, OriginalLength: len(data)}, nil
}

func (c *codec) Decompress(p Payload) ([]byte, error) {
	if p.Format != c.format {
		return nil, errors.Errorf("data format %s != codec format %s", p.Format, c.format)
	}
	out, err := c.decompress(p.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", c.format)
	}
	if len(out) != p.OriginalLength {
		return nil, errors.Errorf("decompressed %s payload has %d bytes, want %d", c.format, len(out), p.OriginalLength)
	}
	return out, nil
}

func rawCompress(data []byte) ([]byte, error) {
	return data, nil
}

func rawDecompress(data []byte) ([]byte, error) {
	return data, nil
}

// zipEntry is the name of the single entry of ZIP payloads.
const zipEntry = "1"

func zipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(zipEntry)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func zipDecompress(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(zr.File) != 1 {
		return nil, errors.Errorf("zip payload has %d entries", len(zr.File))
	}
	r, err := zr.File[0].Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	return out, errors.WithStack(err)
}

func lz4Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func lz4Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	return out, errors.WithStack(err)
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	return out, errors.WithStack(err)
}
