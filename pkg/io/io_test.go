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
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gridwire/pkg/errors"
	"gridwire/pkg/msg"
	"gridwire/pkg/proto"
)

// jobEchoHandler answers every JobRequest with a JobResult carrying the
// request id, and every LockRequest with a grant.
type jobEchoHandler struct{}

func (h *jobEchoHandler) Init()   {}
func (h *jobEchoHandler) Finish() {}

func (h *jobEchoHandler) Process(reqCtx IRequestContext) error {
	switch m := reqCtx.GetMessage().(type) {
	case *msg.Handshake:
		reqCtx.Reply(NewResponseContext(msg.NewHandshake(m.NodeId, map[string]string{"role": "test"})))
	case *msg.JobRequest:
		res := m.CreateResult(msg.StatusOk)
		res.Metrics = map[string]int64{"args": int64(len(m.Args))}
		reqCtx.Reply(NewResponseContext(res))
	case *msg.LockRequest:
		resp := m.CreateResponse()
		resp.Granted = true
		reqCtx.Reply(NewResponseContext(resp))
	default:
		return fmt.Errorf("unexpected request type %d", m.TypeId())
	}
	return nil
}

func startTestServer(t *testing.T) (*Listener, string) {
	t.Helper()
	lsnr, err := NewListener(
		ListenerConfig{ServiceEndpoint: ServiceEndpoint{Addr: "127.0.0.1:0"}, Name: "test"},
		InboundConfig{}, msg.NewRegistry(), &jobEchoHandler{})
	if err != nil {
		t.Fatal(err)
	}
	ln := lsnr.(*Listener)
	go func() {
		for {
			if err := ln.AcceptAndServe(); err != nil {
				return
			}
		}
	}()
	return ln, ln.Addr().String()
}

func newTestOutboundConfig() *OutboundConfig {
	cfg := &OutboundConfig{}
	cfg.SetDefaultIfNotDefined()
	cfg.ReconnectIntervalBase = 10
	return cfg
}

func waitConnected(t *testing.T, proc *OutboundProcessor) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !proc.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("processor never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func roundTrip(t *testing.T, proc *OutboundProcessor, req proto.Message) proto.Message {
	t.Helper()
	respCh := make(chan IResponseContext, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := proc.SendRequest(NewOutboundRequestContext(req, ctx, respCh)); err != nil {
		t.Fatal(err)
	}
	select {
	case resp := <-respCh:
		if resp.GetStatus() != StatusOk {
			t.Fatalf("io status %d", resp.GetStatus())
		}
		return resp.GetMessage()
	case <-ctx.Done():
		t.Fatal("timed out waiting for response")
		return nil
	}
}

func TestRequestResponseOverTCP(t *testing.T) {
	lsnr, addr := startTestServer(t)
	defer lsnr.Shutdown()

	proc := NewOutboundProcessor(addr, msg.NewRegistry(), newTestOutboundConfig(), true)
	defer proc.Shutdown()
	waitConnected(t, proc)

	req := msg.NewJobRequest("compact", []string{"-a", "-b"})
	res, ok := roundTrip(t, proc, req).(*msg.JobResult)
	if !ok {
		t.Fatal("expected a JobResult")
	}
	if !res.RequestId.Equal(req.RequestId) {
		t.Fatal("response carries wrong request id")
	}
	if res.Metrics["args"] != 2 {
		t.Fatalf("unexpected metrics: %v", res.Metrics)
	}
}

func TestResponsesArriveInRequestOrder(t *testing.T) {
	lsnr, addr := startTestServer(t)
	defer lsnr.Shutdown()

	proc := NewOutboundProcessor(addr, msg.NewRegistry(), newTestOutboundConfig(), true)
	defer proc.Shutdown()
	waitConnected(t, proc)

	const nReqs = 50
	respCh := make(chan IResponseContext, nReqs)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ids := make([]proto.RequestId, nReqs)
	for i := 0; i < nReqs; i++ {
		req := msg.NewLockRequest(int64(i), []string{"k"}, 100)
		ids[i] = req.RequestId
		if err := proc.SendRequest(NewOutboundRequestContext(req, ctx, respCh)); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < nReqs; i++ {
		select {
		case resp := <-respCh:
			got, ok := resp.GetMessage().(*msg.LockResponse)
			if !ok {
				t.Fatalf("response %d: unexpected type", i)
			}
			if !got.RequestId.Equal(ids[i]) {
				t.Fatalf("response %d out of order", i)
			}
			if got.LockId != int64(i) || !got.Granted {
				t.Fatalf("response %d: wrong content %v", i, got)
			}
		case <-ctx.Done():
			t.Fatalf("timed out after %d responses", i)
		}
	}
}

// nodeHandler tags every JobResult with the node it ran on.
type nodeHandler struct {
	node int64
}

func (h *nodeHandler) Init()   {}
func (h *nodeHandler) Finish() {}

func (h *nodeHandler) Process(reqCtx IRequestContext) error {
	req, ok := reqCtx.GetMessage().(*msg.JobRequest)
	if !ok {
		return fmt.Errorf("unexpected request type")
	}
	res := req.CreateResult(msg.StatusOk)
	res.Metrics = map[string]int64{"node": h.node}
	reqCtx.Reply(NewResponseContext(res))
	return nil
}

func TestRouterAffinityPinsKeyToOneTarget(t *testing.T) {
	const nTargets = 2
	endpoints := make([]ServiceEndpoint, nTargets)
	for i := 0; i < nTargets; i++ {
		lsnr, err := NewListener(
			ListenerConfig{ServiceEndpoint: ServiceEndpoint{Addr: "127.0.0.1:0"}, Name: "node"},
			InboundConfig{}, msg.NewRegistry(), &nodeHandler{node: int64(i)})
		if err != nil {
			t.Fatal(err)
		}
		ln := lsnr.(*Listener)
		defer ln.Shutdown()
		go func() {
			for {
				if err := ln.AcceptAndServe(); err != nil {
					return
				}
			}
		}()
		endpoints[i] = ServiceEndpoint{Addr: ln.Addr().String()}
	}

	router := NewRouter(endpoints, msg.NewRegistry(), newTestOutboundConfig(), true)
	defer router.Shutdown()
	for i := 0; i < router.NumTargets(); i++ {
		waitConnected(t, router.GetProcessor(i))
	}

	sendOne := func(key []byte) int64 {
		t.Helper()
		req := msg.NewJobRequest("probe", nil)
		req.AffinityKey = key
		respCh := make(chan IResponseContext, 1)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.SendRequest(key, NewOutboundRequestContext(req, ctx, respCh)); err != nil {
			t.Fatal(err)
		}
		select {
		case resp := <-respCh:
			res, ok := resp.GetMessage().(*msg.JobResult)
			if !ok {
				t.Fatal("expected a JobResult")
			}
			return res.Metrics["node"]
		case <-ctx.Done():
			t.Fatal("timed out")
			return -1
		}
	}

	key := []byte("pinned-key")
	first := sendOne(key)
	for i := 0; i < 10; i++ {
		if got := sendOne(key); got != first {
			t.Fatalf("key moved from node %d to node %d", first, got)
		}
	}

	// keyless requests round-robin over both targets
	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		seen[sendOne(nil)] = true
	}
	if len(seen) != nTargets {
		t.Fatalf("round robin used %d of %d targets", len(seen), nTargets)
	}
}

func TestBounceWhenDisconnected(t *testing.T) {
	// no server listening; enableBounce makes SendRequest fail fast
	proc := NewOutboundProcessor("127.0.0.1:1", msg.NewRegistry(), newTestOutboundConfig(), true)
	defer proc.Shutdown()

	respCh := make(chan IResponseContext, 1)
	req := msg.NewLockRequest(1, nil, 10)
	if err := proc.SendRequest(NewOutboundRequestContext(req, nil, respCh)); err == nil {
		t.Fatal("expected bounce while disconnected")
	}
}

func TestLowPrioritySendYields(t *testing.T) {
	cfg := newTestOutboundConfig()
	cfg.ReqChanBufSize = 4
	proc := &OutboundProcessor{}
	proc.Init(ServiceEndpoint{Addr: "127.0.0.1:1"}, msg.NewRegistry(), cfg, false)

	respCh := make(chan IResponseContext, 1)
	req := NewOutboundRequestContext(msg.NewLockRequest(1, nil, 10), nil, respCh)

	if err := proc.SendRequestLowPriority(req); err != errors.ErrNoConnection {
		t.Fatalf("expected ErrNoConnection while down, got %v", err)
	}

	atomic.StoreInt32(&proc.numActive, 1)
	for i := 0; i < cfg.ReqChanBufSize/2; i++ {
		if err := proc.SendRequest(req); err != nil {
			t.Fatal(err)
		}
	}
	// half the channel is queued; bulk traffic backs off, normal does not
	if err := proc.SendRequestLowPriority(req); err != errors.ErrBusy {
		t.Fatalf("expected ErrBusy at half watermark, got %v", err)
	}
	if err := proc.SendRequest(req); err != nil {
		t.Fatal(err)
	}
}

type testHandshaker struct {
	nodeId [16]byte
	gotOk  int32
}

func (h *testHandshaker) GetName() string      { return "test" }
func (h *testHandshaker) ExpectResponse() bool { return true }

func (h *testHandshaker) GetHandshakeRequest() proto.Message {
	return msg.NewHandshake(h.nodeId, map[string]string{"role": "client"})
}

func (h *testHandshaker) OnHandshakeResponse(m proto.Message) bool {
	resp, ok := m.(*msg.Handshake)
	if !ok || resp.NodeId != h.nodeId {
		return false
	}
	atomic.AddInt32(&h.gotOk, 1)
	return true
}

func TestHandshakeBeforeServing(t *testing.T) {
	lsnr, addr := startTestServer(t)
	defer lsnr.Shutdown()

	hshaker := &testHandshaker{nodeId: [16]byte{1, 2, 3, 4}}
	proc := &OutboundProcessor{}
	proc.Init(ServiceEndpoint{Addr: addr}, msg.NewRegistry(), newTestOutboundConfig(), true)
	proc.SetHandshaker(hshaker)
	proc.Start()
	defer proc.Shutdown()
	waitConnected(t, proc)

	if atomic.LoadInt32(&hshaker.gotOk) == 0 {
		t.Fatal("connector serving without a handshake exchange")
	}

	req := msg.NewJobRequest("after-handshake", nil)
	if _, ok := roundTrip(t, proc, req).(*msg.JobResult); !ok {
		t.Fatal("expected a JobResult")
	}
}

func TestServiceEndpointConnString(t *testing.T) {
	var ep ServiceEndpoint
	if err := ep.Validate(); err == nil {
		t.Fatal("empty endpoint must not validate")
	}
	ep.SetFromConnString("9000")
	if ep.Addr != ":9000" {
		t.Fatalf("got %q", ep.Addr)
	}
	ep.SetFromConnString("10.1.1.5:9000")
	if ep.GetConnString() != "10.1.1.5:9000" {
		t.Fatalf("got %q", ep.GetConnString())
	}
}
