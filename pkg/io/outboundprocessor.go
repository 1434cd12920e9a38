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
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"gridwire/pkg/errors"
	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

type (
	IConnEventHandler interface {
		OnConnectSuccess(connector *OutboundConnector, timeTaken time.Duration)
		OnConnectError(timeTaken time.Duration, connStr string, err error)
	}

	// OutboundProcessor manages a pool of one or more underlying
	// connections to a downstream peer. It also bounces incoming requests
	// when all connections are down.
	OutboundProcessor struct {
		numConns     int32
		numActive    int32
		connInfo     ServiceEndpoint
		connectors   []*OutboundConnector
		connCh       chan *OutboundConnector
		reqCh        chan IRequestContext
		monitorCh    chan int // signals connector communication error
		doneCh       chan struct{}
		shutdown     bool
		enableBounce bool
		config       *OutboundConfig
		registry     *proto.Registry
		hshaker      IHandshaker
		wg           sync.WaitGroup
		connEvHdlr   IConnEventHandler
	}
)

func (p *OutboundProcessor) Init(endpoint ServiceEndpoint, reg *proto.Registry,
	config *OutboundConfig, enableBounce bool) {
	numConns := config.NumConnsPerTarget
	p.numConns = numConns
	p.numActive = 0
	p.connInfo = endpoint
	p.connectors = make([]*OutboundConnector, numConns)
	p.connCh = make(chan *OutboundConnector, numConns)
	p.monitorCh = make(chan int, numConns)
	p.reqCh = make(chan IRequestContext, config.ReqChanBufSize)
	p.doneCh = make(chan struct{})
	p.shutdown = false
	p.enableBounce = enableBounce
	p.config = config
	p.registry = reg
}

func (p *OutboundProcessor) SetConnEventHandler(hdlr IConnEventHandler) {
	p.connEvHdlr = hdlr
}

// SetHandshaker applies to connections established after the call; set it
// before Start.
func (p *OutboundProcessor) SetHandshaker(h IHandshaker) {
	p.hshaker = h
}

func (p *OutboundProcessor) Start() {
	p.wg.Add(1)
	go p.Run()
}

func NewOutbProcessor(endpoint ServiceEndpoint, reg *proto.Registry,
	config *OutboundConfig, enableBounce bool) (p *OutboundProcessor) {
	p = &OutboundProcessor{}
	p.Init(endpoint, reg, config, enableBounce)
	p.Start()
	return p
}

func NewOutboundProcessor(connInfo string, reg *proto.Registry,
	config *OutboundConfig, enableBounce bool) *OutboundProcessor {
	return NewOutbProcessor(ServiceEndpoint{Addr: connInfo}, reg, config, enableBounce)
}

func (p *OutboundProcessor) GetRequestCh() chan IRequestContext {
	return p.reqCh
}

// Non-blocking send
func (p *OutboundProcessor) sendRequest(req IRequestContext) (err *errors.Error) {
	select {
	case p.reqCh <- req:
	default:
		return errors.ErrBusy
	}
	return nil
}

func (p *OutboundProcessor) SendRequest(req IRequestContext) (err *errors.Error) {
	// bounce check
	if p.enableBounce && atomic.LoadInt32(&p.numActive) <= 0 {
		return errors.ErrNoConnection
	}

	return p.sendRequest(req)
}

// SendRequestLowPriority yields to real time traffic: bulk transfers such
// as snapshot streaming take this path.
func (p *OutboundProcessor) SendRequestLowPriority(req IRequestContext) (err *errors.Error) {
	if atomic.LoadInt32(&p.numActive) <= 0 {
		return errors.ErrNoConnection
	}

	// reject when half of the channel is used.
	if len(p.reqCh) >= p.config.ReqChanBufSize/2 {
		return errors.ErrBusy
	}

	return p.sendRequest(req)
}

func (p *OutboundProcessor) Run() {
	defer p.wg.Done()

	var bounceCh chan IRequestContext = nil
	if p.enableBounce {
		bounceCh = p.reqCh
	}

	p.wg.Add(int(p.numConns))
	for i := 0; i < int(p.numConns); i++ {
		go p.connect(p.connCh, i, nil)
	}

	for {
		select {
		case conn := <-p.connCh:
			glog.V(1).Infof("connector %s started", conn.displayName)

			p.connectors[conn.GetId()] = conn
			atomic.AddInt32(&p.numActive, 1)
			conn.Start()

			if p.enableBounce && p.numActive > 0 {
				bounceCh = nil
			}
			conn.SetState(SERVING)

		case <-p.doneCh:
			return

		case id, ok := <-p.monitorCh:
			if !ok || id >= int(p.numConns) {
				return
			}

			glog.V(1).Infof("%s connector %d down", p.connInfo.GetConnString(), id)

			connector := p.connectors[id]
			if connector == nil {
				// the connection for this slot is ongoing
				continue
			}

			atomic.AddInt32(&p.numActive, -1)

			if p.enableBounce && p.numActive <= 0 {
				bounceCh = p.reqCh
			}

			p.connectors[id] = nil

			if !p.shutdown {
				p.wg.Add(1)
				go p.connect(p.connCh, id, connector)
			}

		// bounceCh is reqCh only if all connections are down
		case req, ok := <-bounceCh:
			if ok && req != nil {
				ReplyError(req, StatusNoConn)
			}
		}
	}
}

func (p *OutboundProcessor) Shutdown() {
	p.shutdown = true
	for i := 0; i < int(p.numConns); i++ {
		if p.connectors[i] != nil {
			p.connectors[i].Shutdown()
		}
	}
	close(p.monitorCh)
	close(p.doneCh)
}

func (p *OutboundProcessor) WaitShutdown() {
	p.wg.Wait()
	close(p.connCh)
	close(p.reqCh)
}

func (p *OutboundProcessor) GetNumConnections() int {
	numConns := atomic.LoadInt32(&p.numActive)
	return int(numConns)
}

func (p *OutboundProcessor) IsConnected() bool {
	return atomic.LoadInt32(&p.numActive) > 0
}

// connect dials with exponential backoff until it succeeds or the
// processor shuts down. The previous connector for the slot, if any, is
// drained first.
func (p *OutboundProcessor) connect(connCh chan *OutboundConnector, id int, connector *OutboundConnector) {
	defer p.wg.Done()

	if connector != nil {
		connector.Shutdown()
		connector.SetState(CONNECTING)
	}

	interval := p.config.ReconnectIntervalBase
	timer := util.NewTimerWrapper(time.Duration(interval) * time.Millisecond)
	timer.Reset(time.Duration(interval) * time.Millisecond)
	defer timer.Stop()

	for {
		if p.shutdown {
			return
		}

		select {
		case <-p.doneCh:
			return

		case now := <-timer.GetTimeoutCh():
			conn, err := Connect(&p.connInfo, p.config.ConnectTimeout.Duration)
			timeTaken := time.Since(now)
			if err != nil {
				if p.connEvHdlr != nil {
					p.connEvHdlr.OnConnectError(timeTaken, p.connInfo.GetConnString(), err)
				}
				if interval < p.config.ReconnectIntervalMax {
					interval = 2 * interval
				}
				timer.Reset(time.Duration(interval) * time.Millisecond)
				continue
			}

			connector = NewOutboundConnector(id, conn, p.reqCh, p.monitorCh, p.registry, p.config)
			connector.SetHandshaker(p.hshaker)
			glog.V(1).Infof("connector connected: id %d, laddr: %v", id, conn.LocalAddr())
			if p.connEvHdlr != nil {
				p.connEvHdlr.OnConnectSuccess(connector, timeTaken)
			}

			if !connector.Handshake() {
				glog.V(1).Infof("handshake failed")
				connector.Close()
				if interval < p.config.ReconnectIntervalMax {
					interval = 2 * interval
				}
				timer.Reset(time.Duration(interval) * time.Millisecond)
				continue
			}

			if !p.shutdown {
				connCh <- connector
			}
			return
		}
	}
}

func (p *OutboundProcessor) GetConnInfo() string {
	return p.connInfo.Addr
}

func (p *OutboundProcessor) GetRequestSendingQueueSize() int {
	return len(p.reqCh)
}
