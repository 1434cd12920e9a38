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

// Package msg defines the message set spoken between gridwire peers. Each
// message declares its wire layout as an ordered field table consumed by
// the proto cursors; field order is append-only so older peers keep
// decoding frames from newer ones.
package msg

import (
	"gridwire/pkg/proto"
)

const (
	TypeIdHandshake proto.TypeId = iota + 1
	TypeIdLockRequest
	TypeIdLockResponse
	TypeIdSnapshotChunk
	TypeIdJobRequest
	TypeIdJobResult
	TypeIdBatch
	TypeIdDeploymentInfo
)

// Status codes carried by JobResult and LockResponse.
const (
	StatusOk int16 = iota
	StatusNoCapacity
	StatusBadTask
	StatusInternal
)

// NewRegistry returns a registry covering the full gridwire message set.
func NewRegistry() *proto.Registry {
	reg := proto.NewRegistry()
	for id, ctor := range map[proto.TypeId]func() proto.Message{
		TypeIdHandshake:      func() proto.Message { return &Handshake{} },
		TypeIdLockRequest:    func() proto.Message { return &LockRequest{} },
		TypeIdLockResponse:   func() proto.Message { return &LockResponse{} },
		TypeIdSnapshotChunk:  func() proto.Message { return &SnapshotChunk{} },
		TypeIdJobRequest:     func() proto.Message { return &JobRequest{} },
		TypeIdJobResult:      func() proto.Message { return &JobResult{} },
		TypeIdBatch:          func() proto.Message { return &Batch{} },
		TypeIdDeploymentInfo: func() proto.Message { return &DeploymentInfo{} },
	} {
		if err := reg.Register(id, ctor); err != nil {
			panic(err)
		}
	}
	return reg
}
