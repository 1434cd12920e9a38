//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package io

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"gridwire/pkg/io/ioutil"
	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

const (
	kMinSizeWriteBuffer = 64 * 1024
)

// write batching buffers are recycled across connections
var writeBufPool = util.NewSyncBufferPool(kMinSizeWriteBuffer)

type StateType int32

const (
	WAITING    = StateType(0)
	CONNECTING = StateType(1)
	SERVING    = StateType(2)
	DRAINING   = StateType(3)
)

type (
	IHandshaker interface {
		GetName() string
		GetHandshakeRequest() proto.Message
		ExpectResponse() bool
		OnHandshakeResponse(m proto.Message) bool
	}

	// OutboundConnector owns one connection to a downstream peer. Requests
	// and responses correlate by order: the peer answers every frame in
	// the order received, so the oldest pending request owns the next
	// inbound frame.
	OutboundConnector struct {
		id     int
		conn   net.Conn
		reader *bufio.Reader
		framer *FrameReader

		reqCh   chan IRequestContext
		pending chan IRequestContext // FIFO, oldest first

		doneCh      chan struct{}
		monitorCh   chan int
		wg          sync.WaitGroup
		closeOnce   sync.Once
		config      *OutboundConfig
		registry    *proto.Registry
		state       int32
		hshaker     IHandshaker
		displayName string
	}
)

// each OutboundConnector object runs two go routines,
// one for Read, one for Write
func NewOutboundConnector(id int, c net.Conn, reqCh chan IRequestContext, monCh chan int,
	reg *proto.Registry, config *OutboundConfig) (p *OutboundConnector) {

	if config.IOBufSize == 0 {
		config.IOBufSize = 64000
	}
	reader := util.NewBufioReader(c, config.IOBufSize)
	p = &OutboundConnector{
		id:        id,
		conn:      c,
		reader:    reader,
		framer:    NewFrameReader(reader, reg, config.IOBufSize),
		reqCh:     reqCh,
		pending:   make(chan IRequestContext, config.MaxPendingQueSize),
		doneCh:    make(chan struct{}),
		monitorCh: monCh,
		registry:  reg,
		config:    config,
	}

	p.displayName = fmt.Sprintf("id=%d, laddr=%s raddr=%s",
		p.id, p.conn.LocalAddr(), p.conn.RemoteAddr())

	return p
}

func (p *OutboundConnector) Start() {
	p.wg.Add(2)
	go p.writeLoop()
	go p.readLoop()
}

func (p *OutboundConnector) Close() {
	p.closeOnce.Do(func() {
		glog.V(1).Infof("connector %s closed", p.displayName)
		close(p.doneCh)
		p.monitorCh <- p.id
	})
}

func (p *OutboundConnector) SetHandshaker(h IHandshaker) {
	p.hshaker = h
	if h != nil {
		p.displayName = fmt.Sprintf("id=%d, t=%s, laddr=%s raddr=%s",
			p.id, h.GetName(), p.conn.LocalAddr(), p.conn.RemoteAddr())
	}
}

// wait for all go routine to finish
func (p *OutboundConnector) Shutdown() {
	p.Close()
	p.wg.Wait()
	p.cleanPending()
}

func (p *OutboundConnector) SetState(s StateType) {
	atomic.StoreInt32(&p.state, int32(s))
}

func (p *OutboundConnector) AllowRestart() bool {
	s := atomic.LoadInt32(&p.state)
	return (s == int32(WAITING))
}

func (p *OutboundConnector) IsActive() bool {
	s := atomic.LoadInt32(&p.state)
	return (s == int32(SERVING))
}

// Handshake runs once before the connector starts serving. It bypasses the
// pending queue; by protocol the hello exchange precedes all requests.
func (p *OutboundConnector) Handshake() bool {
	if p.hshaker == nil {
		return true
	}
	var buf bytes.Buffer
	fw := NewFrameWriter(p.config.IOBufSize)
	if _, err := fw.Append(&buf, p.hshaker.GetHandshakeRequest()); err != nil {
		glog.Error(err)
		return false
	}
	if _, err := buf.WriteTo(p.conn); err != nil {
		glog.Error(err)
		return false
	}

	if !p.hshaker.ExpectResponse() {
		return true
	}

	p.conn.SetReadDeadline(time.Now().Add(p.config.HandshakeTimeout.Duration))
	resp, err := p.framer.ReadFrame()
	if err != nil {
		glog.Errorf("connector %s, handshake failed: err=%v", p.displayName, err)
		return false
	}
	if !p.hshaker.OnHandshakeResponse(resp) {
		glog.Errorf("connector %s, handshake failed", p.displayName)
		return false
	}
	glog.V(1).Infof("connector %s, handshake succeed", p.displayName)
	return true
}

// writeLoop drains the shared request channel, enqueues each request on
// the pending FIFO, and batches encoded frames so back-to-back requests
// share a syscall.
func (p *OutboundConnector) writeLoop() {
	defer func() {
		p.Close()
		p.wg.Done()
		glog.V(1).Infof("connector %s write loop exit", p.displayName)
	}()

	var chHavingDataToWrite chan bool
	var chClosedForNotifyingFlush chan bool = make(chan bool)
	close(chClosedForNotifyingFlush)

	buf := writeBufPool.Get()
	defer writeBufPool.Put(buf)
	fw := NewFrameWriter(p.config.IOBufSize)
	bw := util.NewBufioWriter(p.conn, p.config.IOBufSize)
	defer util.PutBufioWriter(bw)

	flush := func() error {
		if _, err := buf.WriteTo(bw); err != nil {
			return err
		}
		return bw.Flush()
	}

	funBufferForWrite := func(req IRequestContext) (n int, err error) {
		if req.GetCtx() != nil {
			select {
			case <-req.GetCtx().Done():
				return
			default:
			}
		}

		// must hold a pending slot before any frame byte leaves, or the
		// response would have no owner
		select {
		case p.pending <- req:
		default:
			ReplyError(req, StatusBusy)
			return 0, nil
		}

		return fw.Append(buf, req.GetMessage())
	}

	maxBufSize := p.config.MaxBufferedWriteSize

	for {
		select {
		case <-p.doneCh:
			return

		case req, ok := <-p.reqCh:
			if !ok {
				glog.V(1).Infof("reqCh closed")
				return
			}

			n := 0
			if req != nil {
				if k, err := funBufferForWrite(req); err != nil {
					glog.Error(err)
					return
				} else {
					n += k
				}
			}

			// keep reading till max buf size reached or no more requests
		LOOP:
			for n < maxBufSize {
				select {
				case req, ok := <-p.reqCh:
					if !ok {
						glog.V(1).Infof("reqCh closed")
						return
					}
					if req != nil {
						if k, err := funBufferForWrite(req); err != nil {
							glog.Error(err)
							return
						} else {
							n += k
						}
					}

				default:
					break LOOP
				}
			}

			if buf.Len() >= kMinSizeWriteBuffer {
				if err := flush(); err != nil {
					if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
						continue
					}
					glog.Error(err)
					return
				}
			}
			if buf.Len() != 0 {
				chHavingDataToWrite = chClosedForNotifyingFlush
			} else {
				chHavingDataToWrite = nil
			}

		case <-chHavingDataToWrite:
			if err := flush(); err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				glog.Error(err)
				return
			}
			if buf.Len() == 0 {
				chHavingDataToWrite = nil
			}
		}
	}
}

// readLoop decodes response frames and hands each to the oldest pending
// request. Read deadlines chunk the blocking read so shutdown is noticed;
// a deadline firing mid-frame is harmless, the frame cursor resumes.
func (p *OutboundConnector) readLoop() {
	doneTimer := util.NewTimerWrapper(2 * p.config.GracefulShutdownTime.Duration)
	var chTimeout <-chan time.Time = nil
	var shutdown bool = false

	defer func() {
		p.Close()
		p.conn.Close()
		util.PutBufioReader(p.reader)
		doneTimer.Stop()
		p.wg.Done()
		glog.V(1).Infof("connector %s read loop exit", p.displayName)
	}()

	doneCh := p.doneCh
	for {
		select {
		case <-doneCh:
			if len(p.pending) == 0 && p.framer.Buffered() == 0 {
				return
			}
			doneCh = nil

			// graceful shutdown, drain pending responses with a bounded wait
			doneTimer.Reset(2 * p.config.GracefulShutdownTime.Duration)
			chTimeout = doneTimer.GetTimeoutCh()
			shutdown = true

		case <-chTimeout:
			glog.V(1).Infof("connector %s reader graceful shutdown timeout", p.displayName)
			return

		default:
			if shutdown && len(p.pending) == 0 {
				glog.V(1).Infof("connector %s reader graceful shutdown", p.displayName)
				return
			}

			p.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			resp, err := p.framer.ReadFrame()
			if err != nil {
				if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
					continue
				}
				ioutil.LogError(err)
				return
			}
			p.sendResponse(resp)
		}
	}
}

func (p *OutboundConnector) sendResponse(m proto.Message) {
	select {
	case req := <-p.pending:
		req.Reply(NewResponseContext(m))
	default:
		glog.Warningf("response with no pending request, remote=%s type=%d",
			p.conn.RemoteAddr().String(), m.TypeId())
	}
}

func (p *OutboundConnector) cleanPending() {
	for {
		select {
		case req := <-p.pending:
			ReplyError(req, StatusConnClosed)
		default:
			return
		}
	}
}

func (p *OutboundConnector) GetId() int {
	return p.id
}
