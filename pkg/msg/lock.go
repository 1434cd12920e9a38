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

package msg

import (
	"fmt"

	"gridwire/pkg/proto"
)

// LockResponse flag bits. New bits gate new trailing fields so old peers
// never misread frames from newer ones.
const (
	kLockRespFlagHasHolder = uint8(0x01)
)

type LockRequest struct {
	RequestId     proto.RequestId
	LockId        int64
	Keys          []string
	WaitTimeoutMs int32
}

func NewLockRequest(lockId int64, keys []string, waitTimeoutMs int32) *LockRequest {
	req := &LockRequest{LockId: lockId, Keys: keys, WaitTimeoutMs: waitTimeoutMs}
	req.RequestId.SetNewRequestId()
	return req
}

func (m *LockRequest) TypeId() proto.TypeId { return TypeIdLockRequest }

func (m *LockRequest) Fields() []proto.Field {
	return []proto.Field{
		{Name: "rid",
			Write: func(w *proto.Writer) bool { return w.WriteUUID(m.RequestId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadUUID()
				if ok {
					m.RequestId = v
				}
				return ok, nil
			}},
		{Name: "lockid",
			Write: func(w *proto.Writer) bool { return w.WriteInt64(m.LockId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt64()
				if ok {
					m.LockId = v
				}
				return ok, nil
			}},
		{Name: "keys",
			Write: func(w *proto.Writer) bool { return w.WriteStringSlice(m.Keys) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadStringSlice()
				if ok {
					m.Keys = v
				}
				return ok, err
			}},
		{Name: "waitms",
			Write: func(w *proto.Writer) bool { return w.WriteInt32(m.WaitTimeoutMs) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt32()
				if ok {
					m.WaitTimeoutMs = v
				}
				return ok, nil
			}},
	}
}

// CreateResponse carries the request id and lock id over so the caller can
// correlate without inspecting transport state.
func (m *LockRequest) CreateResponse() *LockResponse {
	return &LockResponse{RequestId: m.RequestId, LockId: m.LockId}
}

func (m *LockRequest) String() string {
	return fmt.Sprintf("LockRequest{rid=%s lock=%d keys=%d wait=%dms}",
		m.RequestId.String(), m.LockId, len(m.Keys), m.WaitTimeoutMs)
}

type LockResponse struct {
	flags     uint8
	RequestId proto.RequestId
	LockId    int64
	Granted   bool
	Status    int16
	holder    [16]byte
}

func (m *LockResponse) TypeId() proto.TypeId { return TypeIdLockResponse }

func (m *LockResponse) Fields() []proto.Field {
	return []proto.Field{
		{Name: "flags",
			Write: func(w *proto.Writer) bool { return w.WriteUint8(m.flags) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadUint8()
				if ok {
					m.flags = v
				}
				return ok, nil
			}},
		{Name: "rid",
			Write: func(w *proto.Writer) bool { return w.WriteUUID(m.RequestId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadUUID()
				if ok {
					m.RequestId = v
				}
				return ok, nil
			}},
		{Name: "lockid",
			Write: func(w *proto.Writer) bool { return w.WriteInt64(m.LockId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt64()
				if ok {
					m.LockId = v
				}
				return ok, nil
			}},
		{Name: "granted",
			Write: func(w *proto.Writer) bool { return w.WriteBool(m.Granted) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadBool()
				if ok {
					m.Granted = v
				}
				return ok, nil
			}},
		{Name: "status",
			Write: func(w *proto.Writer) bool { return w.WriteInt16(m.Status) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt16()
				if ok {
					m.Status = v
				}
				return ok, nil
			}},
		{Name: "holder",
			Write: func(w *proto.Writer) bool {
				if m.flags&kLockRespFlagHasHolder == 0 {
					return true
				}
				return w.WriteUUID(m.holder)
			},
			Read: func(r *proto.Reader) (bool, error) {
				if m.flags&kLockRespFlagHasHolder == 0 {
					return true, nil
				}
				v, ok := r.ReadUUID()
				if ok {
					m.holder = v
				}
				return ok, nil
			}},
	}
}

func (m *LockResponse) SetHolder(holder [16]byte) {
	m.holder = holder
	m.flags |= kLockRespFlagHasHolder
}

// GetHolder returns the contending holder, if the responder reported one.
// Absent on grants and on frames from peers predating the field.
func (m *LockResponse) GetHolder() (holder [16]byte, ok bool) {
	if m.flags&kLockRespFlagHasHolder == 0 {
		return
	}
	return m.holder, true
}

func (m *LockResponse) String() string {
	return fmt.Sprintf("LockResponse{rid=%s lock=%d granted=%v status=%d}",
		m.RequestId.String(), m.LockId, m.Granted, m.Status)
}
