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

// Package echo implements the test server subcommand. It grants every
// lock, acknowledges every job and snapshot chunk, and answers batches
// message by message.
package echo

import (
	"fmt"

	"github.com/golang/glog"

	"gridwire/pkg/cfg"
	"gridwire/pkg/cmd"
	"gridwire/pkg/io"
	"gridwire/pkg/msg"
	"gridwire/pkg/proto"
)

type (
	Config struct {
		Listener io.ListenerConfig
		Inbound  io.InboundConfig
	}

	echoServer struct {
		cmd.Command

		cmdOpts struct {
			cfgFile string
			addr    string
		}
		config Config
	}

	echoHandler struct{}
)

const kDefaultListenAddr = "127.0.0.1:5080"

func (h *echoHandler) Init()   {}
func (h *echoHandler) Finish() {}

func (h *echoHandler) reply(m proto.Message) (proto.Message, error) {
	switch req := m.(type) {
	case *msg.Handshake:
		return msg.NewHandshake(req.NodeId, map[string]string{"role": "echo"}), nil
	case *msg.LockRequest:
		resp := req.CreateResponse()
		resp.Granted = true
		return resp, nil
	case *msg.JobRequest:
		return req.CreateResult(msg.StatusOk), nil
	case *msg.SnapshotChunk:
		ack := &msg.SnapshotChunk{SnapshotId: req.SnapshotId, Seq: req.Seq, Last: req.Last}
		return ack, nil
	case *msg.Batch:
		resp := &msg.Batch{}
		for _, sub := range req.Msgs {
			r, err := h.reply(sub)
			if err != nil {
				return nil, err
			}
			resp.Append(r)
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("unexpected request type %d", m.TypeId())
	}
}

func (h *echoHandler) Process(reqCtx io.IRequestContext) error {
	resp, err := h.reply(reqCtx.GetMessage())
	if err != nil {
		return err
	}
	reqCtx.Reply(io.NewResponseContext(resp))
	return nil
}

func (s *echoServer) Init(name string, desc string) {
	s.Command.Init(name, desc)
	s.StringOption(&s.cmdOpts.addr, "a|addr", kDefaultListenAddr, "specify listening address")
	s.StringOption(&s.cmdOpts.cfgFile, "c|config", "", "specify toml configuration file name")

	s.AddExample(name+" -a 127.0.0.1:5080", "\tserve on 127.0.0.1:5080")
}

func (s *echoServer) Parse(args []string) (err error) {
	if err = s.Command.Parse(args); err != nil {
		return
	}
	s.config.Listener.Addr = kDefaultListenAddr
	s.config.Listener.Name = "echo"
	if len(s.cmdOpts.cfgFile) != 0 {
		var layered, overlay cfg.Config
		if err = layered.ReadFrom(&s.config); err != nil {
			return
		}
		if err = overlay.ReadFromTomlFile(s.cmdOpts.cfgFile); err != nil {
			return fmt.Errorf("failed to load config file %s. %s", s.cmdOpts.cfgFile, err)
		}
		if err = layered.Merge(&overlay); err != nil {
			return
		}
		if err = layered.WriteTo(&s.config); err != nil {
			return
		}
	}
	if s.cmdOpts.addr != kDefaultListenAddr {
		s.config.Listener.Addr = s.cmdOpts.addr
	}
	return s.config.Listener.Validate()
}

func (s *echoServer) Exec() {
	s.Validate()

	lsnr, err := io.NewListener(s.config.Listener, s.config.Inbound, msg.NewRegistry(), &echoHandler{})
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("serving on %s", s.config.Listener.GetConnString())
	for {
		if err := lsnr.AcceptAndServe(); err != nil {
			glog.Error(err)
			return
		}
	}
}

func init() {
	c := &echoServer{}
	c.Init("serve", "run an echo server for bench and inspect")

	cmd.Register(c)
}
