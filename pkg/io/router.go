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
	"sync/atomic"

	"gridwire/pkg/errors"
	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

// Router fans requests out across downstream targets. Requests with an
// affinity key hash onto a fixed target, keeping same-key requests on one
// connection in order; the rest round-robin.
type Router struct {
	procs []*OutboundProcessor
	next  uint32
}

func NewRouter(endpoints []ServiceEndpoint, reg *proto.Registry,
	config *OutboundConfig, enableBounce bool) *Router {
	r := &Router{
		procs: make([]*OutboundProcessor, len(endpoints)),
	}
	for i, ep := range endpoints {
		r.procs[i] = NewOutbProcessor(ep, reg, config, enableBounce)
	}
	return r
}

func (r *Router) NumTargets() int {
	return len(r.procs)
}

func (r *Router) GetProcessor(i int) *OutboundProcessor {
	return r.procs[i]
}

// SendRequest routes by affinity key when one is given, round-robin
// otherwise.
func (r *Router) SendRequest(affinityKey []byte, req IRequestContext) *errors.Error {
	if len(r.procs) == 0 {
		return errors.ErrNoConnection
	}
	var idx uint32
	if len(affinityKey) > 0 {
		idx = util.AffinitySlot(affinityKey, uint32(len(r.procs)))
	} else {
		idx = atomic.AddUint32(&r.next, 1) % uint32(len(r.procs))
	}
	return r.procs[idx].SendRequest(req)
}

func (r *Router) Shutdown() {
	for _, p := range r.procs {
		p.Shutdown()
	}
}

func (r *Router) WaitShutdown() {
	for _, p := range r.procs {
		p.WaitShutdown()
	}
}
