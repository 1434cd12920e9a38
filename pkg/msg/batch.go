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

// Batch groups messages so small frames amortize one syscall. Members ride
// the tagged element encoding, so a batch may mix message types.
type Batch struct {
	Msgs []proto.Message
}

func (m *Batch) TypeId() proto.TypeId { return TypeIdBatch }

func (m *Batch) Fields() []proto.Field {
	return []proto.Field{
		{Name: "msgs",
			Write: func(w *proto.Writer) bool {
				return w.WriteCollection(m.elems())
			},
			Read: func(r *proto.Reader) (bool, error) {
				elems, ok, err := r.ReadCollection()
				if err != nil || !ok {
					return ok, err
				}
				return true, m.setFromElems(elems)
			}},
	}
}

// elems is rebuilt on every suspended retry, so it must be deterministic;
// it mirrors Msgs order exactly.
func (m *Batch) elems() []proto.Element {
	if m.Msgs == nil {
		return nil
	}
	elems := make([]proto.Element, len(m.Msgs))
	for i, mm := range m.Msgs {
		elems[i] = proto.MessageElem(mm)
	}
	return elems
}

func (m *Batch) setFromElems(elems []proto.Element) error {
	if elems == nil {
		m.Msgs = nil
		return nil
	}
	msgs := make([]proto.Message, len(elems))
	for i, e := range elems {
		if e.Kind != proto.KindMessage {
			return proto.ErrBadElementType
		}
		if e.Val == nil {
			continue
		}
		mm, isMsg := e.Val.(proto.Message)
		if !isMsg {
			return proto.ErrBadElementType
		}
		msgs[i] = mm
	}
	m.Msgs = msgs
	return nil
}

func (m *Batch) Append(msgs ...proto.Message) {
	m.Msgs = append(m.Msgs, msgs...)
}

func (m *Batch) String() string {
	return fmt.Sprintf("Batch{%d msgs}", len(m.Msgs))
}
