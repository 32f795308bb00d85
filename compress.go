package tinyhttp

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Supported compression levels for GzipBody.
const (
	CompressNoCompression      = gzip.NoCompression
	CompressBestSpeed          = gzip.BestSpeed
	CompressBestCompression    = gzip.BestCompression
	CompressDefaultCompression = gzip.DefaultCompression
)

// GzipBody replaces the body with its gzip-compressed form and adds a
// 'Content-Encoding: gzip' header. The body source is drained into memory,
// so this is meant for modestly sized bodies.
func (resp *Response) GzipBody(level int) error {
	data, err := resp.bufferedBody()
	if err != nil {
		return err
	}

	b := AcquireByteBuffer()
	zw, err := gzip.NewWriterLevel(b, level)
	if err != nil {
		ReleaseByteBuffer(b)
		return err
	}
	if _, err = zw.Write(data); err == nil {
		err = zw.Close()
	}
	if err != nil {
		ReleaseByteBuffer(b)
		return err
	}

	compressed := append([]byte(nil), b.B...)
	ReleaseByteBuffer(b)

	resp.WithBody(bytes.NewReader(compressed), len(compressed))
	resp.AddHeader(Header{Key: strContentEncoding, Value: "gzip"})
	return nil
}

// BrotliBody replaces the body with its brotli-compressed form and adds a
// 'Content-Encoding: br' header. Valid levels range from brotli.BestSpeed
// (0) to brotli.BestCompression (11).
func (resp *Response) BrotliBody(level int) error {
	data, err := resp.bufferedBody()
	if err != nil {
		return err
	}

	b := AcquireByteBuffer()
	zw := brotli.NewWriterLevel(b, level)
	_, err = zw.Write(data)
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		ReleaseByteBuffer(b)
		return err
	}

	compressed := append([]byte(nil), b.B...)
	ReleaseByteBuffer(b)

	resp.WithBody(bytes.NewReader(compressed), len(compressed))
	resp.AddHeader(Header{Key: strContentEncoding, Value: "br"})
	return nil
}

// bufferedBody drains the body source into memory, honoring the declared
// length bound, and closes the source.
func (resp *Response) bufferedBody() ([]byte, error) {
	if resp.body == nil {
		return nil, nil
	}
	r := resp.body
	if resp.contentLength >= 0 {
		r = &boundedReader{r: resp.body, n: resp.contentLength}
	}
	data, err := io.ReadAll(r)
	resp.closeBody() //nolint:errcheck
	if err != nil {
		return nil, err
	}
	return data, nil
}
