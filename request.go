package tinyhttp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

const maxHeaderCount = 256

var (
	// ErrAlreadyResponded is returned when Respond or Upgrade is called on
	// a request that was already answered.
	ErrAlreadyResponded = errors.New("request already responded to")

	errTooManyHeaders = errors.New("too many headers in request")
)

// Request is a single parsed HTTP request, as handed to a RequestHandler.
//
// It is unsafe using a Request from concurrently running goroutines, and
// it must not be used after the handler returns.
type Request struct {
	method  string
	uri     string
	proto   Protocol
	headers []Header

	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	responded bool
	hijacked  bool
}

// Method returns the request method, e.g. "GET".
func (req *Request) Method() string { return req.method }

// URI returns the raw request URI.
func (req *Request) URI() string { return req.uri }

// Proto returns the request protocol version.
func (req *Request) Proto() Protocol { return req.proto }

// Headers returns the request headers in the order they were received.
func (req *Request) Headers() []Header { return req.headers }

// Header returns the value of the first header with the given name.
func (req *Request) Header(key string) (string, bool) {
	return peekHeader(req.headers, key)
}

// RemoteAddr returns the client address.
func (req *Request) RemoteAddr() net.Addr {
	if req.conn == nil {
		return nil
	}
	return req.conn.RemoteAddr()
}

// Respond serializes resp back to the client and flushes it. The response
// body is suppressed for HEAD requests while the framing headers stay
// intact.
func (req *Request) Respond(resp *Response) error {
	if req.responded {
		return ErrAlreadyResponded
	}
	req.responded = true
	if err := resp.Write(req.bw, req.proto, req.headers, req.method == strHead, ""); err != nil {
		return err
	}
	return req.bw.Flush()
}

// Upgrade sends resp as a protocol-switch response and returns the raw
// connection for protocol-specific framing. Bytes the client sent ahead of
// the switch are preserved. On success the caller owns the connection and
// must close it; on error the server keeps ownership.
func (req *Request) Upgrade(proto string, resp *Response) (net.Conn, error) {
	if req.responded {
		return nil, ErrAlreadyResponded
	}
	req.responded = true
	if err := resp.Write(req.bw, req.proto, req.headers, false, proto); err != nil {
		return nil, err
	}
	if err := req.bw.Flush(); err != nil {
		return nil, err
	}
	req.hijacked = true
	return &hijackedConn{Conn: req.conn, r: req.br}, nil
}

// hijackedConn couples the connection's buffered reader with the raw
// connection after a protocol switch, so early bytes are not lost.
type hijackedConn struct {
	net.Conn
	r *bufio.Reader
}

func (hc *hijackedConn) Read(p []byte) (int, error) {
	return hc.r.Read(p)
}

// readRequest parses the request line and the header block from br. The
// request body, if any, is intentionally left unread.
func readRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	req := &Request{}
	if err = req.parseRequestLine(line); err != nil {
		return nil, err
	}

	for {
		line, err = readLine(br)
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			return req, nil
		}
		if len(req.headers) >= maxHeaderCount {
			return nil, errTooManyHeaders
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		req.headers = append(req.headers, Header{
			Key:   k,
			Value: strings.TrimLeft(v, " \t"),
		})
	}
}

func (req *Request) parseRequestLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return fmt.Errorf("malformed request line %q", line)
	}
	proto, err := parseProtocol(parts[2])
	if err != nil {
		return err
	}
	req.method = parts[0]
	req.uri = parts[1]
	req.proto = proto
	return nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
