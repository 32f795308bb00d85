package tinyhttp

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func serializeResponse(t *testing.T, resp *Response, proto Protocol, reqHeaders []Header, skipBody bool, upgrade string) string {
	t.Helper()

	var b bytes.Buffer
	bw := bufio.NewWriter(&b)
	if err := resp.Write(bw, proto, reqHeaders, skipBody, upgrade); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return b.String()
}

func splitResponse(t *testing.T, s string) (head, body string) {
	t.Helper()

	i := strings.Index(s, "\r\n\r\n")
	if i < 0 {
		t.Fatalf("cannot find the blank line in %q", s)
	}
	return s[:i+2], s[i+4:]
}

func headerLines(head string) []string {
	lines := strings.Split(strings.TrimSuffix(head, "\r\n"), "\r\n")
	return lines[1:]
}

func peekSerializedHeader(t *testing.T, head, key string) (string, bool) {
	t.Helper()

	for _, line := range headerLines(head) {
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			t.Fatalf("malformed header line %q in %q", line, head)
		}
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func TestResponseFromStringEndToEnd(t *testing.T) {
	t.Parallel()

	resp := ResponseFromString("ok")
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, body := splitResponse(t, s)

	if !strings.HasPrefix(head, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line in %q", head)
	}
	if v, ok := peekSerializedHeader(t, head, "Content-Type"); !ok || v != "text/plain; charset=UTF-8" {
		t.Fatalf("unexpected Content-Type %q, ok=%v", v, ok)
	}
	if v, ok := peekSerializedHeader(t, head, "Content-Length"); !ok || v != "2" {
		t.Fatalf("unexpected Content-Length %q, ok=%v", v, ok)
	}
	if v, ok := peekSerializedHeader(t, head, "Date"); !ok {
		t.Fatalf("missing Date header in %q", head)
	} else if _, err := time.Parse(time.RFC1123, v); err != nil {
		t.Fatalf("cannot parse Date header %q: %s", v, err)
	}
	if _, ok := peekSerializedHeader(t, head, "Server"); !ok {
		t.Fatalf("missing Server header in %q", head)
	}
	if body != "ok" {
		t.Fatalf("unexpected body %q. Expected %q", body, "ok")
	}
}

func TestResponseDuplicateHeadersPreserved(t *testing.T) {
	t.Parallel()

	resp := ResponseFromString("ok").
		WithHeader("X-Foo", "a").
		WithHeader("X-Foo", "b")
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, _ := splitResponse(t, s)

	if n := strings.Count(head, "X-Foo: "); n != 2 {
		t.Fatalf("expected 2 X-Foo headers, found %d in %q", n, head)
	}
	if i := strings.Index(head, "X-Foo: a"); i < 0 || i > strings.Index(head, "X-Foo: b") {
		t.Fatalf("duplicate headers out of order in %q", head)
	}
}

func TestResponseProtectedHeadersDropped(t *testing.T) {
	t.Parallel()

	resp := ResponseFromString("ok").
		WithHeader("Connection", "close").
		WithHeader("Transfer-Encoding", "gzip").
		WithHeader("Upgrade", "h2c").
		WithHeader("Accept-Ranges", "bytes").
		WithHeader("Content-Range", "bytes 0-1/2").
		WithHeader("Trailer", "X-Checksum")
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, _ := splitResponse(t, s)

	for _, key := range []string{"Connection", "Upgrade", "Accept-Ranges", "Content-Range", "Trailer"} {
		if _, ok := peekSerializedHeader(t, head, key); ok {
			t.Fatalf("protected header %q leaked into %q", key, head)
		}
	}
	// the only Transfer-Encoding allowed is the one the serializer owns,
	// and identity framing emits none
	if _, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); ok {
		t.Fatalf("unexpected Transfer-Encoding header in %q", head)
	}
}

func TestResponseContentLengthHeaderOverride(t *testing.T) {
	t.Parallel()

	// a parseable Content-Length header replaces the declared length
	resp := ResponseFromString("0123456789").WithHeader("Content-Length", "4")
	if resp.ContentLength() != 4 {
		t.Fatalf("unexpected content length %d. Expected 4", resp.ContentLength())
	}
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, body := splitResponse(t, s)
	if v, _ := peekSerializedHeader(t, head, "Content-Length"); v != "4" {
		t.Fatalf("unexpected Content-Length %q. Expected %q", v, "4")
	}
	if body != "0123" {
		t.Fatalf("unexpected body %q. Expected %q", body, "0123")
	}

	// a malformed value is dropped silently
	resp = ResponseFromString("ok").WithHeader("Content-Length", "not-a-number")
	if resp.ContentLength() != 2 {
		t.Fatalf("malformed Content-Length must not change the declared length")
	}
}

func TestResponseBodySuppression(t *testing.T) {
	t.Parallel()

	for _, statusCode := range []int{100, 101, 150, 199, 204, 304} {
		resp := NewResponse(statusCode, nil, strings.NewReader("Hello"), 5)
		s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
		head, body := splitResponse(t, s)

		if len(body) != 0 {
			t.Fatalf("status %d must suppress the body, got %q", statusCode, body)
		}
		// the framing header is still emitted for the identity path
		if v, ok := peekSerializedHeader(t, head, "Content-Length"); !ok || v != "5" {
			t.Fatalf("status %d: unexpected Content-Length %q, ok=%v", statusCode, v, ok)
		}
		if _, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); ok {
			t.Fatalf("status %d: unexpected Transfer-Encoding header", statusCode)
		}
	}
}

func TestResponseSkipBody(t *testing.T) {
	t.Parallel()

	// the HEAD case: framing headers intact, no body bytes
	resp := ResponseFromString("ok")
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, true, "")
	head, body := splitResponse(t, s)

	if len(body) != 0 {
		t.Fatalf("skipBody must suppress the body, got %q", body)
	}
	if v, ok := peekSerializedHeader(t, head, "Content-Length"); !ok || v != "2" {
		t.Fatalf("unexpected Content-Length %q, ok=%v", v, ok)
	}
}

func TestResponseUpgrade(t *testing.T) {
	t.Parallel()

	resp := EmptyResponse(StatusSwitchingProtocols)
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "websocket")
	head, body := splitResponse(t, s)

	if !strings.HasPrefix(head, "HTTP/1.1 101 Switching Protocols\r\n") {
		t.Fatalf("unexpected status line in %q", head)
	}

	lines := headerLines(head)
	if len(lines) < 2 || lines[0] != "Connection: upgrade" || lines[1] != "Upgrade: websocket" {
		t.Fatalf("unexpected upgrade header order in %q", head)
	}

	// an upgraded response has no body framing at all
	if _, ok := peekSerializedHeader(t, head, "Content-Length"); ok {
		t.Fatalf("unexpected Content-Length header in %q", head)
	}
	if _, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); ok {
		t.Fatalf("unexpected Transfer-Encoding header in %q", head)
	}
	if len(body) != 0 {
		t.Fatalf("upgrade response must not carry body bytes, got %q", body)
	}
}

func TestResponseUpgradeIgnoresBody(t *testing.T) {
	t.Parallel()

	// even a non-empty body source writes nothing on upgrade
	resp := NewResponse(StatusSwitchingProtocols, nil, strings.NewReader("data"), 4)
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "websocket")
	_, body := splitResponse(t, s)
	if len(body) != 0 {
		t.Fatalf("unexpected body bytes %q", body)
	}
}

func TestResponseChunkedUnknownLength(t *testing.T) {
	t.Parallel()

	resp := NewResponse(StatusOK, nil, strings.NewReader("Hello"), -1)
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, body := splitResponse(t, s)

	if v, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); !ok || v != "chunked" {
		t.Fatalf("unexpected Transfer-Encoding %q, ok=%v", v, ok)
	}
	if _, ok := peekSerializedHeader(t, head, "Content-Length"); ok {
		t.Fatalf("unexpected Content-Length header in %q", head)
	}

	decoded, err := readChunkedBody(bufio.NewReader(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(decoded) != "Hello" {
		t.Fatalf("unexpected decoded body %q. Expected %q", decoded, "Hello")
	}
}

func TestResponseChunkedAboveThreshold(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("a", chunkedThreshold)
	resp := ResponseFromBytes([]byte(payload))
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, body := splitResponse(t, s)

	if v, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); !ok || v != "chunked" {
		t.Fatalf("unexpected Transfer-Encoding %q, ok=%v", v, ok)
	}
	decoded, err := readChunkedBody(bufio.NewReader(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(decoded) != payload {
		t.Fatalf("decoded body mismatch: got %d bytes, expected %d bytes", len(decoded), len(payload))
	}
}

func TestResponseHTTP10AlwaysIdentity(t *testing.T) {
	t.Parallel()

	reqHeaders := []Header{{Key: "TE", Value: "chunked"}}
	resp := ResponseFromString("ok")
	s := serializeResponse(t, resp, ProtocolHTTP10, reqHeaders, false, "")
	head, body := splitResponse(t, s)

	if !strings.HasPrefix(head, "HTTP/1.0 200 OK\r\n") {
		t.Fatalf("the status line must echo the request protocol, got %q", head)
	}
	if _, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); ok {
		t.Fatalf("HTTP/1.0 response must not be chunked: %q", head)
	}
	if body != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestResponseTEChunkedPreference(t *testing.T) {
	t.Parallel()

	reqHeaders := []Header{{Key: "TE", Value: "identity;q=0.3, chunked;q=0.9"}}
	resp := NewResponse(StatusOK, nil, strings.NewReader(strings.Repeat("x", 50)), 50)
	s := serializeResponse(t, resp, ProtocolHTTP11, reqHeaders, false, "")
	head, body := splitResponse(t, s)

	if v, ok := peekSerializedHeader(t, head, "Transfer-Encoding"); !ok || v != "chunked" {
		t.Fatalf("client chunked preference ignored: %q", head)
	}
	decoded, err := readChunkedBody(bufio.NewReader(strings.NewReader(body)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(decoded) != 50 {
		t.Fatalf("unexpected decoded length %d. Expected 50", len(decoded))
	}
}

func TestEmptyResponse(t *testing.T) {
	t.Parallel()

	resp := EmptyResponse(StatusNotFound)
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, body := splitResponse(t, s)

	if !strings.HasPrefix(head, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("unexpected status line in %q", head)
	}
	if v, ok := peekSerializedHeader(t, head, "Content-Length"); !ok || v != "0" {
		t.Fatalf("unexpected Content-Length %q, ok=%v", v, ok)
	}
	if len(body) != 0 {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestResponseBoundedBody(t *testing.T) {
	t.Parallel()

	// the source is longer than the declared length; the excess must
	// never reach the wire
	resp := NewResponse(StatusOK, nil, strings.NewReader("0123456789"), 5)
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	_, body := splitResponse(t, s)
	if body != "01234" {
		t.Fatalf("unexpected body %q. Expected %q", body, "01234")
	}
}

func TestResponseWriteClosesBody(t *testing.T) {
	t.Parallel()

	rc := &recordingReadCloser{Reader: strings.NewReader("ok")}
	resp := NewResponse(StatusOK, nil, rc, 2)
	serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	if !rc.closed {
		t.Fatalf("body source must be closed after serialization")
	}
}

type recordingReadCloser struct {
	io.Reader
	closed bool
}

func (rc *recordingReadCloser) Close() error {
	rc.closed = true
	return nil
}

func TestResponseWriteErrorPropagation(t *testing.T) {
	t.Parallel()

	// a failing sink aborts serialization immediately
	bw := bufio.NewWriterSize(&failingWriter{}, 16)
	resp := ResponseFromString(strings.Repeat("x", 1024))
	if err := resp.Write(bw, ProtocolHTTP11, nil, false, ""); err == nil {
		if err = bw.Flush(); err == nil {
			t.Fatalf("expected a write error")
		}
	}
}

type failingWriter struct{}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestResponseString(t *testing.T) {
	t.Parallel()

	s := ResponseFromString("ok").String()
	if !strings.HasPrefix(s, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected response representation %q", s)
	}
	if !strings.HasSuffix(s, "\r\n\r\nok") {
		t.Fatalf("unexpected response representation %q", s)
	}
}

func TestResponseDefaultStatusCode(t *testing.T) {
	t.Parallel()

	resp := NewResponse(0, nil, nil, 0)
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected default status code %d", resp.StatusCode())
	}
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	if !strings.HasPrefix(s, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("unexpected status line in %q", s)
	}
}

func TestResponseCallerDateAndServerKept(t *testing.T) {
	t.Parallel()

	resp := ResponseFromString("ok").
		WithHeader("Date", "Mon, 02 Jan 2006 15:04:05 GMT").
		WithHeader("Server", "custom/1.0")
	s := serializeResponse(t, resp, ProtocolHTTP11, nil, false, "")
	head, _ := splitResponse(t, s)

	if n := strings.Count(head, "Date: "); n != 1 {
		t.Fatalf("expected exactly one Date header, found %d in %q", n, head)
	}
	if v, _ := peekSerializedHeader(t, head, "Server"); v != "custom/1.0" {
		t.Fatalf("caller-supplied Server header was replaced: %q", head)
	}
}
