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

const kProtocolVersion int16 = 1

// Handshake opens every connection. Attrs carries free-form peer metadata
// (build tag, zone, capabilities) that must survive version skew, hence a
// map rather than fixed fields.
type Handshake struct {
	Ver    int16
	NodeId [16]byte
	Attrs  map[string]string
}

func NewHandshake(nodeId [16]byte, attrs map[string]string) *Handshake {
	return &Handshake{Ver: kProtocolVersion, NodeId: nodeId, Attrs: attrs}
}

func (m *Handshake) TypeId() proto.TypeId { return TypeIdHandshake }

func (m *Handshake) Fields() []proto.Field {
	return []proto.Field{
		{Name: "ver",
			Write: func(w *proto.Writer) bool { return w.WriteInt16(m.Ver) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadInt16()
				if ok {
					m.Ver = v
				}
				return ok, nil
			}},
		{Name: "nodeid",
			Write: func(w *proto.Writer) bool { return w.WriteUUID(m.NodeId) },
			Read: func(r *proto.Reader) (bool, error) {
				v, ok := r.ReadUUID()
				if ok {
					m.NodeId = v
				}
				return ok, nil
			}},
		{Name: "attrs",
			Write: func(w *proto.Writer) bool {
				return w.WriteMap(proto.SortedStringMapEntries(m.Attrs))
			},
			Read: func(r *proto.Reader) (bool, error) {
				entries, ok, err := r.ReadMap()
				if err != nil || !ok {
					return ok, err
				}
				m.Attrs, err = proto.StringMapFromEntries(entries)
				return true, err
			}},
	}
}

func (m *Handshake) String() string {
	return fmt.Sprintf("Handshake{ver=%d node=%X attrs=%d}", m.Ver, m.NodeId, len(m.Attrs))
}
