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
	"context"
	"net"
	"time"

	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

type (
	IListener interface {
		GetName() string
		AcceptAndServe() error
		Close() error
		Shutdown()
		WaitForShutdownToComplete(time.Duration)
		GetConnString() string
		GetNumActiveConnections() uint32
	}

	Listener struct {
		config      ListenerConfig
		ioConfig    InboundConfig
		netListener net.Listener
		reqHandler  IRequestHandler
		registry    *proto.Registry
		connMgr     *InboundConnManager
	}
)

func NewListener(cfg ListenerConfig, iocfg InboundConfig, reg *proto.Registry,
	reqHandler IRequestHandler) (lsnr IListener, err error) {
	ln := &Listener{
		config:     cfg,
		reqHandler: reqHandler,
		registry:   reg,
		ioConfig:   iocfg,
		connMgr: &InboundConnManager{
			activeConns: make(map[*Connector]struct{}),
		},
	}
	ln.ioConfig.SetDefaultIfNotDefined()
	if len(ln.config.Network) == 0 {
		ln.config.Network = "tcp"
	}
	if ln.netListener, err = net.Listen(ln.config.Network, ln.config.Addr); err == nil {
		lsnr = ln
	}
	return
}

func (l *Listener) Close() error {
	return l.netListener.Close()
}

func (l *Listener) Shutdown() {
	l.netListener.Close()
	l.connMgr.Shutdown()
}

func (l *Listener) WaitForShutdownToComplete(timeout time.Duration) {
	l.connMgr.WaitForShutdownToComplete(timeout)
}

func (l *Listener) AcceptAndServe() error {
	conn, err := l.netListener.Accept()
	if err == nil {
		l.startNewConnector(conn)
	}
	//log the error in caller if needed
	return err
}

func (l *Listener) startNewConnector(conn net.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	bufSize := l.ioConfig.IOBufSize
	if bufSize == 0 {
		bufSize = 64000
	}
	reader := util.NewBufioReader(conn, bufSize)
	connector := &Connector{
		conn:       conn,
		reader:     reader,
		framer:     NewFrameReader(reader, l.registry, bufSize),
		ctx:        ctx,
		cancelCtx:  cancel,
		chResponse: make(chan IResponseContext, l.ioConfig.RespChanSize),
		chStop:     make(chan struct{}),
		connMgr:    l.connMgr,
		reqHandler: l.reqHandler,
		config:     l.ioConfig,
		pendingReq: 0,
	}
	connector.Start()
}

func (l *Listener) GetName() string {
	if len(l.config.Name) != 0 {
		return l.config.Name
	}
	return l.config.GetConnString()
}

func (l *Listener) GetConnString() string {
	return l.config.GetConnString()
}

// Addr exposes the bound address, useful when listening on port 0.
func (l *Listener) Addr() net.Addr {
	return l.netListener.Addr()
}

func (l *Listener) GetNumActiveConnections() uint32 {
	if l.connMgr != nil {
		return l.connMgr.GetNumActiveConnections()
	}
	return 0
}
