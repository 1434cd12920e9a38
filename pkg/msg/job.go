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
	"gridwire/pkg/util"
)

// DeploymentInfo is nested inside JobRequest; it gets its own discriminator
// so the envelope codec can inline it like any other message.
type DeploymentInfo struct {
	Zone      string
	Stage     string
	NumShards int32
}

func (m *DeploymentInfo) TypeId() proto.TypeId { return TypeIdDeploymentInfo }

func (m *DeploymentInfo) Fields() []proto.Field {
	return []proto.Field{
		{Name: "zone",
			Write: func(w *proto.Writer) bool { return w.WriteString(m.Zone) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadString()
				if ok {
					m.Zone = v
				}
				return ok, err
			}},
		{Name: "stage",
			Write: func(w *proto.Writer) bool { return w.WriteString(m.Stage) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadString()
				if ok {
					m.Stage = v
				}
				return ok, err
			}},
		{Name: "shards",
			Write: func(w *proto.Writer) bool { return w.WriteInt32(m.NumShards) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt32()
				if ok {
					m.NumShards = v
				}
				return ok, nil
			}},
	}
}

type JobRequest struct {
	RequestId   proto.RequestId
	TaskName    string
	AffinityKey []byte
	Args        []string
	Weights     []float64
	Deployment  *DeploymentInfo
}

func NewJobRequest(task string, args []string) *JobRequest {
	req := &JobRequest{TaskName: task, Args: args}
	req.RequestId.SetNewRequestId()
	return req
}

func (m *JobRequest) TypeId() proto.TypeId { return TypeIdJobRequest }

func (m *JobRequest) Fields() []proto.Field {
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
		{Name: "task",
			Write: func(w *proto.Writer) bool { return w.WriteString(m.TaskName) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadString()
				if ok {
					m.TaskName = v
				}
				return ok, err
			}},
		{Name: "affkey",
			Write: func(w *proto.Writer) bool { return w.WriteBytes(m.AffinityKey) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadBytes()
				if ok {
					m.AffinityKey = v
				}
				return ok, err
			}},
		{Name: "args",
			Write: func(w *proto.Writer) bool { return w.WriteStringSlice(m.Args) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadStringSlice()
				if ok {
					m.Args = v
				}
				return ok, err
			}},
		{Name: "weights",
			Write: func(w *proto.Writer) bool { return w.WriteFloat64Slice(m.Weights) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadFloat64Slice()
				if ok {
					m.Weights = v
				}
				return ok, err
			}},
		{Name: "deploy",
			Write: func(w *proto.Writer) bool {
				// a typed nil must reach the codec as a plain nil
				if m.Deployment == nil {
					return w.WriteMessage(nil)
				}
				return w.WriteMessage(m.Deployment)
			},
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadMessage()
				if err != nil || !ok {
					return ok, err
				}
				if v == nil {
					m.Deployment = nil
					return true, nil
				}
				info, isInfo := v.(*DeploymentInfo)
				if !isInfo {
					return false, proto.ErrCorruptFrame
				}
				m.Deployment = info
				return true, nil
			}},
	}
}

// GetAffinityKey falls back to the request id so affinity routing always
// has a stable key to hash.
func (m *JobRequest) GetAffinityKey() []byte {
	if len(m.AffinityKey) > 0 {
		return m.AffinityKey
	}
	return m.RequestId.Bytes()
}

func (m *JobRequest) CreateResult(status int16) *JobResult {
	return &JobResult{RequestId: m.RequestId, Status: status}
}

func (m *JobRequest) String() string {
	return fmt.Sprintf("JobRequest{rid=%s task=%q args=%d key=%s}",
		m.RequestId.String(), m.TaskName, len(m.Args),
		util.ToPrintableAndHexString(m.AffinityKey))
}

type JobResult struct {
	RequestId proto.RequestId
	Status    int16
	ErrMsg    *string
	Metrics   map[string]int64
	Payload   proto.Payload
}

func (m *JobResult) TypeId() proto.TypeId { return TypeIdJobResult }

func (m *JobResult) Fields() []proto.Field {
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
		{Name: "status",
			Write: func(w *proto.Writer) bool { return w.WriteInt16(m.Status) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt16()
				if ok {
					m.Status = v
				}
				return ok, nil
			}},
		{Name: "errmsg",
			Write: func(w *proto.Writer) bool { return w.WriteStringPtr(m.ErrMsg) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadStringPtr()
				if ok {
					m.ErrMsg = v
				}
				return ok, err
			}},
		{Name: "metrics",
			Write: func(w *proto.Writer) bool {
				return w.WriteMap(proto.SortedStringInt64MapEntries(m.Metrics))
			},
			Read: func(r *proto.Reader) (bool, error) {
				entries, ok, err := r.ReadMap()
				if err != nil || !ok {
					return ok, err
				}
				m.Metrics, err = proto.StringInt64MapFromEntries(entries)
				return true, err
			}},
		{Name: "ptag",
			Write: func(w *proto.Writer) bool { return w.WriteUint8(uint8(m.Payload.GetPayloadType())) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadUint8()
				if ok {
					m.Payload.SetPayloadType(proto.PayloadType(v))
				}
				return ok, nil
			}},
		{Name: "pdata",
			Write: func(w *proto.Writer) bool { return w.WriteBytes(m.Payload.GetData()) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok, err := r.ReadBytes()
				if ok {
					m.Payload.SetData(v)
				}
				return ok, err
			}},
	}
}

func (m *JobResult) SetError(status int16, errmsg string) {
	m.Status = status
	m.ErrMsg = &errmsg
}

func (m *JobResult) String() string {
	s := fmt.Sprintf("JobResult{rid=%s status=%d", m.RequestId.String(), m.Status)
	if m.ErrMsg != nil {
		s += fmt.Sprintf(" err=%q", *m.ErrMsg)
	}
	return s + "}"
}
