package tinyhttp

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
)

// Response represents an HTTP response to be sent for a single request.
//
// Some headers cannot be set by the caller because they are owned by the
// serialization step. Adding them is silently ignored:
//
//   - Accept-Ranges
//   - Connection
//   - Content-Range
//   - Trailer
//   - Transfer-Encoding
//   - Upgrade
//
// Content-Length is special as well: adding it updates the declared body
// length instead of storing the header text. The header is synthesized
// again during serialization whenever identity framing is chosen.
//
// A Response is consumed by a single Write call, which takes ownership of
// the body source. It is unsafe using a Response from concurrently running
// goroutines.
type Response struct {
	statusCode int
	headers    []Header

	body io.Reader

	// contentLength is the declared body length. It is negative when the
	// length is unknown.
	contentLength int
}

// NewResponse builds a Response from raw parts. headers go through the
// same mutation policy as AddHeader. contentLength < 0 means the body
// length is unknown; a known length must match the number of bytes body
// yields, excess bytes are never sent.
func NewResponse(statusCode int, headers []Header, body io.Reader, contentLength int) *Response {
	resp := &Response{
		statusCode:    statusCode,
		body:          body,
		contentLength: contentLength,
	}
	for _, h := range headers {
		resp.AddHeader(h)
	}
	return resp
}

// ResponseFromBytes returns a 200 response with the given body.
func ResponseFromBytes(body []byte) *Response {
	return NewResponse(StatusOK, nil, bytes.NewReader(body), len(body))
}

// ResponseFromString returns a 200 response with the given body and a
// text/plain content type.
func ResponseFromString(body string) *Response {
	headers := []Header{{Key: strContentType, Value: defaultContentType}}
	return NewResponse(StatusOK, headers, strings.NewReader(body), len(body))
}

// ResponseFromFile builds a 200 response from an open file. The response
// takes ownership of the file and closes it once the body has been sent.
//
// Note that the Content-Type is not detected; set it yourself.
func ResponseFromFile(f *os.File) *Response {
	contentLength := -1
	if fi, err := f.Stat(); err == nil {
		size := fi.Size()
		if int64(int(size)) == size {
			contentLength = int(size)
		}
	}
	return NewResponse(StatusOK, nil, f, contentLength)
}

// EmptyResponse returns a body-less response with the given status code.
func EmptyResponse(statusCode int) *Response {
	return NewResponse(statusCode, nil, nil, 0)
}

// StatusCode returns the response status code.
func (resp *Response) StatusCode() int {
	if resp.statusCode == 0 {
		return StatusOK
	}
	return resp.statusCode
}

// ContentLength returns the declared body length, or a negative value if
// the length is unknown.
func (resp *Response) ContentLength() int {
	return resp.contentLength
}

// AddHeader adds h to the response headers, applying the mutation policy
// described on Response. Duplicate keys are kept, and insertion order is
// preserved on the wire.
func (resp *Response) AddHeader(h Header) {
	if isProtectedHeader(h.Key) {
		return
	}
	if strings.EqualFold(h.Key, strContentLength) {
		// a malformed length in header text is dropped, never fatal
		if n, err := ParseUint([]byte(h.Value)); err == nil {
			resp.contentLength = n
		}
		return
	}
	resp.headers = append(resp.headers, h)
}

// WithHeader returns the response with an additional header.
func (resp *Response) WithHeader(key, value string) *Response {
	resp.AddHeader(Header{Key: key, Value: value})
	return resp
}

// WithStatusCode returns the response with a different status code.
func (resp *Response) WithStatusCode(statusCode int) *Response {
	resp.statusCode = statusCode
	return resp
}

// WithBody returns the response with a different body source, closing the
// previous one. contentLength < 0 means the body length is unknown.
func (resp *Response) WithBody(body io.Reader, contentLength int) *Response {
	resp.closeBody() //nolint:errcheck
	resp.body = body
	resp.contentLength = contentLength
	return resp
}

func (resp *Response) insertHeader(h Header) {
	resp.headers = append(resp.headers, Header{})
	copy(resp.headers[1:], resp.headers)
	resp.headers[0] = h
}

// bodyForbidden reports whether the status class forbids a message body.
// From http/1.1 specs: all 1xx (informational), 204 (no content) and
// 304 (not modified) responses MUST NOT include a message-body.
func bodyForbidden(statusCode int) bool {
	if statusCode >= 100 && statusCode < 200 {
		return true
	}
	return statusCode == StatusNoContent || statusCode == StatusNotModified
}

// Write serializes the response to w.
//
// proto and reqHeaders belong to the request being answered: the status
// line echoes proto, and the client's TE header takes part in the framing
// decision. skipBody suppresses the body while keeping the framing headers
// intact; use it for HEAD requests. A non-empty upgrade names the protocol
// the connection is switching to; an upgraded response carries no body
// framing at all.
//
// Write consumes the body source. It does not flush w: flushing and either
// reusing or handing off the underlying connection stay with the caller.
// Any write error aborts serialization immediately; HTTP framing cannot be
// resumed mid-stream.
func (resp *Response) Write(w *bufio.Writer, proto Protocol, reqHeaders []Header, skipBody bool, upgrade string) error {
	defer resp.closeBody() //nolint:errcheck

	hasFraming := len(upgrade) == 0
	te := transferEncodingIdentity
	if hasFraming {
		te = chooseTransferEncoding(reqHeaders, proto, resp.contentLength, false)
	}

	if !hasHeader(resp.headers, strDate) {
		resp.insertHeader(Header{Key: strDate, Value: string(getServerDate())})
	}
	if !hasHeader(resp.headers, strServer) {
		resp.insertHeader(Header{Key: strServer, Value: defaultServerName})
	}

	if !hasFraming {
		// Connection must end up first on the wire, so it is inserted last.
		resp.insertHeader(Header{Key: strUpgrade, Value: upgrade})
		resp.insertHeader(Header{Key: strConnection, Value: "upgrade"})
	}

	skipBody = skipBody || bodyForbidden(resp.StatusCode())

	if hasFraming {
		switch te {
		case transferEncodingChunked:
			resp.headers = append(resp.headers, Header{Key: strTransferEncoding, Value: strChunked})
		case transferEncodingIdentity:
			if resp.contentLength < 0 {
				panic("BUG: identity transfer encoding chosen with unknown content length")
			}
			resp.headers = append(resp.headers, Header{
				Key:   strContentLength,
				Value: string(AppendUint(nil, resp.contentLength)),
			})
		}
	}

	if err := writeMessageHeader(w, proto, resp.StatusCode(), resp.headers); err != nil {
		return err
	}

	if skipBody || !hasFraming {
		return nil
	}

	body := resp.body
	if body == nil {
		body = bytes.NewReader(nil)
	}

	switch te {
	case transferEncodingChunked:
		return writeBodyChunked(w, body)
	default:
		if resp.contentLength == 0 {
			return nil
		}
		return writeBodyFixedSize(w, body, resp.contentLength)
	}
}

// writeMessageHeader emits the status line, every header in order and the
// blank separator line.
func writeMessageHeader(w *bufio.Writer, proto Protocol, statusCode int, headers []Header) error {
	b := AcquireByteBuffer()
	b.B = formatStatusLine(b.B, proto, statusCode)
	for i := range headers {
		b.B = appendHeaderLine(b.B, headers[i].Key, headers[i].Value)
	}
	b.B = append(b.B, strCRLF...)
	_, err := w.Write(b.B)
	ReleaseByteBuffer(b)
	return err
}

func (resp *Response) closeBody() error {
	if resp.body == nil {
		return nil
	}
	var err error
	if bc, ok := resp.body.(io.Closer); ok {
		err = bc.Close()
	}
	resp.body = nil
	return err
}

// String returns the response serialized as for an HTTP/1.1 request with
// no TE preference. It consumes the body source, so it is mostly useful in
// tests and debugging. Returns the error message on serialization failure.
func (resp *Response) String() string {
	var b bytes.Buffer
	bw := bufio.NewWriter(&b)
	if err := resp.Write(bw, ProtocolHTTP11, nil, false, ""); err != nil {
		return err.Error()
	}
	if err := bw.Flush(); err != nil {
		return err.Error()
	}
	return b.String()
}
