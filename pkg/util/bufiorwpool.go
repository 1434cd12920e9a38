package util

import (
	"bufio"
	"io"
	"sync"
)

// Pools of bufio readers and writers, recycled across connections so churny
// reconnect loops do not reallocate their buffers. A pooled instance keeps
// the size it was created with; callers use one size per pool.
var (
	bufioReaderPool sync.Pool
	bufioWriterPool sync.Pool
)

func NewBufioReader(r io.Reader, bufSize int) *bufio.Reader {
	if v := bufioReaderPool.Get(); v != nil {
		br := v.(*bufio.Reader)
		br.Reset(r)
		return br
	}
	return bufio.NewReaderSize(r, bufSize)
}

// PutBufioReader releases br back to the pool. The caller must be done with
// the underlying reader; br drops its reference here.
func PutBufioReader(br *bufio.Reader) {
	br.Reset(nil)
	bufioReaderPool.Put(br)
}

func NewBufioWriter(w io.Writer, bufSize int) *bufio.Writer {
	if v := bufioWriterPool.Get(); v != nil {
		bw := v.(*bufio.Writer)
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, bufSize)
}

// PutBufioWriter releases bw without flushing; flush before putting.
func PutBufioWriter(bw *bufio.Writer) {
	bw.Reset(nil)
	bufioWriterPool.Put(bw)
}
