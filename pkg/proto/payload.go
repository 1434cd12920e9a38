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

import (
	"bytes"
	"fmt"

	"github.com/golang/snappy"
)

const (
	PayloadTypeClear = PayloadType(iota)
	PayloadTypeSnappy
)

type (
	PayloadType uint8

	// Payload is the opaque value blob carried by data-plane messages.
	// On the wire it occupies two consecutive fields: the tag byte and the
	// nullable data bytes.
	Payload struct {
		tag  PayloadType
		data []byte
	}
)

var (
	ErrUnsupportedPayloadType = fmt.Errorf("unsupported payload type")
)

func (t PayloadType) String() string {
	switch t {
	case PayloadTypeClear:
		return "clear payload"
	case PayloadTypeSnappy:
		return "snappy compressed"
	default:
		return fmt.Sprintf("unsupported payload type: %d", t)
	}
}

func (p *Payload) GetPayloadType() PayloadType {
	return p.tag
}

func (p *Payload) GetData() []byte {
	return p.data
}

func (p *Payload) GetLength() uint32 {
	return uint32(len(p.data))
}

func (p *Payload) SetPayload(tag PayloadType, data []byte) {
	p.tag = tag
	p.data = data
}

func (p *Payload) SetWithClearValue(value []byte) {
	p.tag = PayloadTypeClear
	p.data = value
}

// SetPayloadType and SetData exist for incremental decoding, where the tag
// field completes before the data field.
func (p *Payload) SetPayloadType(tag PayloadType) {
	p.tag = tag
}

func (p *Payload) SetData(data []byte) {
	p.data = data
}

// Compress snappy-encodes a clear payload in place. Compressing twice is
// an error.
func (p *Payload) Compress() error {
	if p.tag != PayloadTypeClear {
		return fmt.Errorf("already compressed")
	}
	if len(p.data) == 0 {
		return nil
	}
	p.data = snappy.Encode(nil, p.data)
	p.tag = PayloadTypeSnappy
	return nil
}

// GetClearValue returns the decoded value, decompressing when needed.
func (p *Payload) GetClearValue() (value []byte, err error) {
	switch p.tag {
	case PayloadTypeClear:
		value = p.data
	case PayloadTypeSnappy:
		value, err = snappy.Decode(nil, p.data)
	default:
		err = ErrUnsupportedPayloadType
	}
	return
}

func (p *Payload) Equal(other *Payload) bool {
	if other == nil {
		return false
	}
	if p.tag != other.tag {
		return false
	}
	return bytes.Equal(p.data, other.data)
}

func (p *Payload) Clear() {
	p.tag = PayloadTypeClear
	p.data = nil
}
