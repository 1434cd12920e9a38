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

// SnapshotChunk streams one fragment of a state snapshot. The payload tag
// and payload bytes are separate fields: a field must map to exactly one
// codec call so a suspended write never re-emits completed bytes.
type SnapshotChunk struct {
	SnapshotId int64
	Seq        int32
	Last       bool
	Payload    proto.Payload
}

func (m *SnapshotChunk) TypeId() proto.TypeId { return TypeIdSnapshotChunk }

func (m *SnapshotChunk) Fields() []proto.Field {
	return []proto.Field{
		{Name: "snapid",
			Write: func(w *proto.Writer) bool { return w.WriteInt64(m.SnapshotId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt64()
				if ok {
					m.SnapshotId = v
				}
				return ok, nil
			}},
		{Name: "seq",
			Write: func(w *proto.Writer) bool { return w.WriteInt32(m.Seq) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt32()
				if ok {
					m.Seq = v
				}
				return ok, nil
			}},
		{Name: "last",
			Write: func(w *proto.Writer) bool { return w.WriteBool(m.Last) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadBool()
				if ok {
					m.Last = v
				}
				return ok, nil
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

func (m *SnapshotChunk) String() string {
	return fmt.Sprintf("SnapshotChunk{snap=%d seq=%d last=%v len=%d}",
		m.SnapshotId, m.Seq, m.Last, m.Payload.GetLength())
}
