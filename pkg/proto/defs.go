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
	"encoding/binary"
)

type (
	// TypeId is the wire discriminator identifying a concrete message type.
	TypeId int16

	// Kind tags an element of a generic collection or map so the reader
	// knows how to decode heterogeneous-but-typed containers.
	Kind uint8
)

const (
	KindNull Kind = iota
	KindByte
	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindUUID
	KindBytes
	KindMessage

	kindLast
)

const (
	// kNilTypeId is written in place of a nested message that is nil.
	kNilTypeId TypeId = -1

	kHeaderSize = 2

	// kNullLen marks a null string/array/collection, distinct from length 0.
	kNullLen int32 = -1

	// kMaxLenPrefix caps length prefixes; anything larger is treated as a
	// corrupt frame rather than an allocation request.
	kMaxLenPrefix int32 = 1 << 28
)

var (
	EncByteOrder = binary.LittleEndian
)

var kindNameMap = map[Kind]string{
	KindNull:    "null",
	KindByte:    "byte",
	KindBool:    "bool",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindUUID:    "uuid",
	KindBytes:   "bytes",
	KindMessage: "message",
}

func (k Kind) String() string {
	if name, ok := kindNameMap[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) isValid() bool {
	return k < kindLast
}

// scalar kinds may serve as set members and map keys.
func (k Kind) isScalar() bool {
	switch k {
	case KindByte, KindBool, KindInt16, KindInt32, KindInt64,
		KindFloat32, KindFloat64, KindString, KindUUID:
		return true
	}
	return false
}
