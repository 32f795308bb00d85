package tinyhttp

import (
	"bufio"
	"io"
)

// chunkedBodyWriter reframes everything written to it as HTTP/1.1 chunked
// transfer coding. Every Write becomes exactly one chunk; chunks are never
// coalesced or split. Close emits the terminating zero-length chunk. The
// underlying writer is neither flushed nor closed.
type chunkedBodyWriter struct {
	w *bufio.Writer
}

func (cw *chunkedBodyWriter) Write(p []byte) (int, error) {
	// a zero-length chunk would terminate the body prematurely
	if len(p) == 0 {
		return 0, nil
	}
	if err := writeChunk(cw.w, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (cw *chunkedBodyWriter) Close() error {
	return writeChunk(cw.w, nil)
}

func writeChunk(w *bufio.Writer, b []byte) error {
	if err := writeHexInt(w, len(b)); err != nil {
		return err
	}
	w.Write(strCRLF) //nolint:errcheck
	w.Write(b)       //nolint:errcheck
	_, err := w.Write(strCRLF)
	return err
}

// writeBodyChunked streams r to w in chunked transfer coding, one chunk
// per Read, and terminates the body on EOF.
func writeBodyChunked(w *bufio.Writer, r io.Reader) error {
	cw := chunkedBodyWriter{w: w}

	vbuf := copyBufPool.Get()
	buf := vbuf.([]byte)

	var err error
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err = cw.Write(buf[:n]); err != nil {
				break
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				err = cw.Close()
			} else {
				err = rerr
			}
			break
		}
		if n == 0 {
			panic("BUG: io.Reader returned 0, nil")
		}
	}

	copyBufPool.Put(vbuf)
	return err
}
