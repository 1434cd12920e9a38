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

// ProtocolError is fatal for the connection that produced it. A partial
// frame cannot be salvaged and decoding is never retried; the transport
// layer is expected to tear the connection down.
type ProtocolError struct {
	what string
}

func NewProtocolError(what string) *ProtocolError {
	return &ProtocolError{what: what}
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.what
}

var (
	// ErrCorruptFrame reports a structurally invalid frame, such as a
	// negative length prefix other than the null sentinel or an unknown
	// element kind.
	ErrCorruptFrame = &ProtocolError{"corrupt frame"}

	// ErrUnknownMessageType reports a discriminator with no registered
	// constructor. The connection is desynchronized and cannot be trusted.
	ErrUnknownMessageType = &ProtocolError{"unknown message type"}

	// ErrBadElementType reports an element whose decoded kind does not
	// match what the containing message expects.
	ErrBadElementType = &ProtocolError{"unexpected element type"}

	ErrDupMessageType = &ProtocolError{"duplicate message type registration"}
)
