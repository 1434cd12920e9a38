package util

import (
	"bytes"
	"sync"
)

type BufferPool interface {
	Get() *bytes.Buffer
	Put(buf *bytes.Buffer)
}

// sync.Pool based buffer pool
type SyncBufferPool struct {
	pool sync.Pool
	size int
}

func NewSyncBufferPool(size int) BufferPool {
	p := &SyncBufferPool{size: size}
	p.pool.New = func() interface{} {
		buf := new(bytes.Buffer)
		buf.Grow(size)
		return buf
	}

	return p
}

func (p *SyncBufferPool) Get() *bytes.Buffer {
	item := p.pool.Get()
	buf, ok := item.(*bytes.Buffer)
	if !ok {
		buf = new(bytes.Buffer)
		buf.Grow(p.size)
	}
	return buf
}

func (p *SyncBufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	p.pool.Put(buf)
}

// channel based buffer pool
type ChanBufferPool struct {
	poolCh chan *bytes.Buffer
	size   int
}

func NewChanBufferPool(chansize int, bufsize int) BufferPool {
	p := &ChanBufferPool{
		poolCh: make(chan *bytes.Buffer, chansize),
		size:   bufsize,
	}

	return p
}

func (p *ChanBufferPool) Get() (buf *bytes.Buffer) {
	select {
	case buf = <-p.poolCh:
	default:
		buf = new(bytes.Buffer)
		buf.Grow(p.size)
	}

	return buf
}

func (p *ChanBufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	select {
	case p.poolCh <- buf:
	default:
		// do nothing, will be gc
	}
}
