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
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"gridwire/pkg/io/ioutil"
	"gridwire/pkg/util"
)

// Connector serves one accepted connection. Requests decode and process
// sequentially, so responses enter chResponse in request order and the
// peer's order-based correlation holds.
type Connector struct {
	conn       net.Conn
	reader     *bufio.Reader
	framer     *FrameReader
	ctx        context.Context
	cancelCtx  context.CancelFunc
	chResponse chan IResponseContext
	chStop     chan struct{}
	stopOnce   sync.Once
	closeOnce  sync.Once
	config     InboundConfig
	pendingReq int32               // local atomic counter, for graceful shutdown
	reqCounter *util.AtomicCounter // global counter
	reqHandler IRequestHandler
	connMgr    *InboundConnManager
}

func (c *Connector) Start() {
	glog.V(2).Infof("start connector...")
	c.connMgr.TrackConn(c, true)
	go c.doRead()
	go c.doWrite()
}

func (c *Connector) Stop() {
	c.stopOnce.Do(func() {
		close(c.chStop)
	})
}

func (c *Connector) Close() {
	c.closeOnce.Do(func() {
		raddr := c.conn.RemoteAddr().String()
		glog.V(1).Infof("close: raddr=%s laddr=%s", raddr, c.conn.LocalAddr().String())

		c.Stop()
		c.conn.Close()
		c.connMgr.TrackConn(c, false)
		c.cancelCtx()
	})
}

func (c *Connector) doRead() {
	glog.V(2).Infof("start reader")
	idleTimer := util.NewTimerWrapper(c.config.IdleTimeout.Duration)

	defer func() {
		// note, reader does not close the tcp connection; writer will
		util.PutBufioReader(c.reader)
		idleTimer.Stop()
		glog.V(2).Infoln("reader exit")
		c.Stop()
	}()

	for {
		select {
		case <-c.chStop:
			// server shutdown or terminate if there's other fatal error
			return

		default:
			idleTimer.Reset(c.config.IdleTimeout.Duration)

		Loop: // waiting for one request
			for {
				select {
				case <-idleTimer.GetTimeoutCh():
					glog.V(1).Infof("idle timeout")
					return

				case <-c.chStop:
					return

				default:
					c.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
					if _, err := c.reader.Peek(1); err == nil {
						// the request has arrived, go ahead with request
						break Loop
					} else {
						if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
							continue
						}
						ioutil.LogError(err)
						return
					}
				}
			}

			// read and process one request; the read deadline loop lets a
			// slow sender trickle a frame without tripping the idle timer
			c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout.Duration))
			m, err := c.framer.ReadFrame()
			for err != nil {
				if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
					select {
					case <-c.chStop:
						return
					default:
					}
					c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout.Duration))
					m, err = c.framer.ReadFrame()
					continue
				}
				ioutil.LogError(err)
				return
			}

			r := NewInboundRequestContext(m, c)
			r.SetTimeout(c.ctx, c.config.RequestTimeout.Duration)

			if glog.V(2) {
				glog.Infof("receiving req: type=%d", m.TypeId())
			}

			atomic.AddInt32(&c.pendingReq, 1)
			if c.reqCounter != nil {
				c.reqCounter.Add(1)
			}
			if err := c.reqHandler.Process(r); err != nil {
				glog.Error(err)
				return
			}
		}
	}
}

func (c *Connector) doWrite() {
	var chHavingDataToWrite chan bool
	var chClosedForNotifyingFlush chan bool = make(chan bool)
	close(chClosedForNotifyingFlush)

	wBuf := writeBufPool.Get()
	defer writeBufPool.Put(wBuf)
	fw := NewFrameWriter(c.config.IOBufSize)
	bw := util.NewBufioWriter(c.conn, c.config.IOBufSize)
	defer util.PutBufioWriter(bw)

	flush := func() error {
		if _, err := wBuf.WriteTo(bw); err != nil {
			return err
		}
		return bw.Flush()
	}

	funBufferForWrite := func(resp IResponseContext) (n int, err error) {
		if resp != nil {
			if m := resp.GetMessage(); m != nil {
				if n, err = fw.Append(wBuf, m); err != nil {
					glog.Errorf("write error :%s", err)
					return
				}
			}
			resp.OnComplete()
			if c.reqCounter != nil {
				c.reqCounter.Add(-1)
			}
			atomic.AddInt32(&c.pendingReq, -1)
		}
		return
	}

	var timer *util.TimerWrapper
	defer func() {
		c.Close()
		if timer != nil {
			timer.Stop()
		}
		glog.V(2).Infoln("writer exit")
	}()

	var chTimeout <-chan time.Time = nil
	var shutdown bool = false

	// instantiate a timer, but not started yet
	timer = util.NewTimerWrapper(2 * c.config.RequestTimeout.Duration)

	maxWBufSize := c.config.MaxBufferedWriteSize
	chStop := c.chStop

	for {
		select {
		case <-chStop:
			if atomic.LoadInt32(&c.pendingReq) <= 0 {
				return
			}
			chStop = nil

			// to be safe, graceful shutdown timer is set to 2 times request timeout
			timer.Reset(2 * c.config.RequestTimeout.Duration)
			chTimeout = timer.GetTimeoutCh()
			shutdown = true

		case v, ok := <-c.chResponse:
			if !ok {
				glog.V(1).Infof("response channel closed")
				return
			}
			n := 0
			if k, err := funBufferForWrite(v); err != nil {
				glog.Error(err)
				return
			} else {
				n += k
			}
		loop:
			for n < maxWBufSize {
				select {
				case resp, ok := <-c.chResponse:
					if !ok {
						glog.V(1).Infof("response channel closed")
						return
					}
					if resp != nil {
						if k, err := funBufferForWrite(resp); err != nil {
							glog.Error(err)
							return
						} else {
							n += k
						}
					}

				default:
					break loop
				}
			}
			if wBuf.Len() >= kMinSizeWriteBuffer {
				if err := flush(); err != nil {
					if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
						continue
					}
					glog.Error(err)
					return
				}
			}
			if wBuf.Len() != 0 {
				chHavingDataToWrite = chClosedForNotifyingFlush
			} else {
				chHavingDataToWrite = nil
			}

			if shutdown && atomic.LoadInt32(&c.pendingReq) <= 0 {
				return
			}
		case <-chHavingDataToWrite:
			if err := flush(); err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				glog.Error(err)
				return
			}
			if wBuf.Len() == 0 {
				chHavingDataToWrite = nil
			}
		case <-chTimeout:
			glog.V(1).Infof("in_conn: writer graceful shutdown timeout, pending req=%d",
				atomic.LoadInt32(&c.pendingReq))
			return
		}
	}
}
