package tinyhttp

import (
	"bufio"
	"io"
	"sync"
)

var copyBufPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 4096)
	},
}

func copyZeroAlloc(w io.Writer, r io.Reader) (int64, error) {
	vbuf := copyBufPool.Get()
	buf := vbuf.([]byte)
	n, err := io.CopyBuffer(w, r, buf)
	copyBufPool.Put(vbuf)
	return n, err
}

// boundedReader exposes at most n bytes of r. Once the budget is spent,
// Read reports io.EOF even if r has more data. If r runs out early, the
// short read propagates unchanged.
type boundedReader struct {
	r io.Reader
	n int
}

func (br *boundedReader) Read(p []byte) (int, error) {
	if br.n <= 0 {
		return 0, io.EOF
	}
	if len(p) > br.n {
		p = p[:br.n]
	}
	n, err := br.r.Read(p)
	br.n -= n
	return n, err
}

// writeBodyFixedSize streams at most size bytes from r to w. This is the
// identity framing path: the Content-Length header already promised
// exactly size bytes, so excess body bytes are cut off here. A source
// ending early produces a short body; that is the caller's contract
// violation and is not detected at this layer.
func writeBodyFixedSize(w *bufio.Writer, r io.Reader, size int) error {
	if size == 0 {
		return nil
	}
	_, err := copyZeroAlloc(w, &boundedReader{r: r, n: size})
	return err
}
