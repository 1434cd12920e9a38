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

package proto

// Registry maps wire discriminators to zero-argument constructors. It is
// an explicit object handed to whatever constructs readers. It is populated
// at startup and read-only afterwards, so no locking on the lookup path.
type Registry struct {
	ctors map[TypeId]func() Message
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[TypeId]func() Message)}
}

func (reg *Registry) Register(id TypeId, ctor func() Message) error {
	if id < 0 {
		return NewProtocolError("reserved message type id")
	}
	if _, ok := reg.ctors[id]; ok {
		return ErrDupMessageType
	}
	reg.ctors[id] = ctor
	return nil
}

// New allocates an empty message for the discriminator. An unregistered id
// means the peer and this node disagree about the protocol; the owning
// connection must be torn down.
func (reg *Registry) New(id TypeId) (Message, error) {
	if reg == nil {
		return nil, ErrUnknownMessageType
	}
	ctor, ok := reg.ctors[id]
	if !ok {
		return nil, ErrUnknownMessageType
	}
	return ctor(), nil
}

func (reg *Registry) IsRegistered(id TypeId) bool {
	_, ok := reg.ctors[id]
	return ok
}
