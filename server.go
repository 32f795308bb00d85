package tinyhttp

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RequestHandler must process the incoming request, normally by calling
// req.Respond or req.Upgrade exactly once. A request left unanswered when
// the handler returns is completed with an empty 500 response.
type RequestHandler func(req *Request)

// Server implements a minimal HTTP/1.x server.
//
// Each accepted connection is served by its own goroutine and carries a
// single request; connection keep-alive is intentionally not implemented.
//
// It is forbidden copying Server instances.
type Server struct {
	// Handler for processing incoming requests.
	Handler RequestHandler

	// Per-connection buffer size for requests' reading.
	// This also limits the maximum header size.
	//
	// Default buffer size is used if 0.
	ReadBufferSize int

	// Per-connection buffer size for responses' writing.
	//
	// Default buffer size is used if 0.
	WriteBufferSize int

	// Maximum duration for reading the full request header.
	//
	// By default request read timeout is unlimited.
	ReadTimeout time.Duration

	// Maximum duration for writing the full response.
	//
	// By default response write timeout is unlimited.
	WriteTimeout time.Duration

	// Logger used for accept and connection-serving errors.
	//
	// A zap-backed logger is used by default.
	Logger Logger

	readerPool sync.Pool
	writerPool sync.Pool
}

// Logger is used for logging formatted messages.
type Logger interface {
	// Printf must have the same semantics as log.Printf.
	Printf(format string, args ...interface{})
}

var defaultLogger = Logger(zap.NewStdLog(zap.Must(zap.NewProduction())))

func (s *Server) logger() Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return defaultLogger
}

// ListenAndServe serves HTTP requests from the given TCP address.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves incoming connections from the given listener.
//
// Serve blocks until the given listener returns permanent error.
// This error is returned from Serve.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := acceptConn(s, ln)
		if err != nil {
			return err
		}
		go func(c net.Conn) {
			if err := s.serveConn(c); err != nil {
				s.logger().Printf("error when serving connection %q: %s", c.RemoteAddr(), err)
			}
		}(c)
	}
}

func acceptConn(s *Server, ln net.Listener) (net.Conn, error) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Temporary() { //nolint:staticcheck
				s.logger().Printf("Temporary error when accepting new connections: %s", netErr)
				time.Sleep(time.Second)
				continue
			}
			if err != io.EOF {
				s.logger().Printf("Permanent error when accepting new connections: %s", err)
			}
			return nil, err
		}
		return c, nil
	}
}

func (s *Server) serveConn(c net.Conn) error {
	var err error
	if s.ReadTimeout > 0 {
		if err = c.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return multierr.Append(err, c.Close())
		}
	}

	br := s.acquireReader(c)
	req, err := readRequest(br)
	if err != nil {
		s.releaseReader(br)
		if err == io.EOF {
			// the client went away without sending a request
			err = nil
		}
		return multierr.Append(err, c.Close())
	}

	if s.WriteTimeout > 0 {
		if err = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout)); err != nil {
			s.releaseReader(br)
			return multierr.Append(err, c.Close())
		}
	}

	bw := s.acquireWriter(c)
	req.conn = c
	req.br = br
	req.bw = bw

	s.Handler(req)

	if !req.responded {
		err = req.Respond(EmptyResponse(StatusInternalServerError))
	}

	hijacked := req.hijacked
	req.conn = nil
	req.bw = nil
	s.releaseWriter(bw)

	if hijacked {
		// the buffered reader left with the connection; see Request.Upgrade
		return err
	}
	req.br = nil
	s.releaseReader(br)
	return multierr.Append(err, c.Close())
}

const (
	defaultReadBufferSize  = 4096
	defaultWriteBufferSize = 4096
)

func (s *Server) acquireReader(c net.Conn) *bufio.Reader {
	v := s.readerPool.Get()
	if v == nil {
		n := s.ReadBufferSize
		if n <= 0 {
			n = defaultReadBufferSize
		}
		return bufio.NewReaderSize(c, n)
	}
	r := v.(*bufio.Reader)
	r.Reset(c)
	return r
}

func (s *Server) releaseReader(r *bufio.Reader) {
	r.Reset(nil)
	s.readerPool.Put(r)
}

func (s *Server) acquireWriter(c net.Conn) *bufio.Writer {
	v := s.writerPool.Get()
	if v == nil {
		n := s.WriteBufferSize
		if n <= 0 {
			n = defaultWriteBufferSize
		}
		return bufio.NewWriterSize(c, n)
	}
	w := v.(*bufio.Writer)
	w.Reset(c)
	return w
}

func (s *Server) releaseWriter(w *bufio.Writer) {
	w.Reset(nil)
	s.writerPool.Put(w)
}
