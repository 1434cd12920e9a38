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
	"math"
)

// Writer is the resumable primitive encoder. Every Write* returns true
// only when the value was fully written; on false the caller must retry
// the same value after flushing, and the Writer resumes appending the
// remaining bytes only. A Writer is owned by a single cursor and must be
// driven with the same value until that value completes.
type Writer struct {
	buf *Buffer

	// fixed-width value in flight
	staged    [16]byte
	stagedN   int
	stagedOff int

	// string/bytes/typed-slice value in flight
	lenDone bool
	arrOff  int

	// generic collection/map in flight
	colLenDone   bool
	colIdx       int
	kindDone     bool
	entryKeyDone bool

	// nested message in flight
	nested *WriteCursor
}

func (w *Writer) attach(b *Buffer) {
	w.buf = b
}

func (w *Writer) detach() {
	w.buf = nil
}

// flushStaged drains staged[stagedOff:stagedN] into the buffer; returns
// true once the staged value has been written completely.
func (w *Writer) flushStaged() bool {
	n := copy(w.buf.free(), w.staged[w.stagedOff:w.stagedN])
	w.buf.advance(n)
	w.stagedOff += n
	if w.stagedOff == w.stagedN {
		w.stagedN = 0
		w.stagedOff = 0
		return true
	}
	return false
}

func (w *Writer) WriteUint8(v uint8) bool {
	if w.stagedN == 0 {
		w.staged[0] = v
		w.stagedN = 1
	}
	return w.flushStaged()
}

func (w *Writer) WriteBool(v bool) bool {
	var b uint8
	if v {
		b = 1
	}
	return w.WriteUint8(b)
}

func (w *Writer) WriteInt16(v int16) bool {
	if w.stagedN == 0 {
		EncByteOrder.PutUint16(w.staged[:2], uint16(v))
		w.stagedN = 2
	}
	return w.flushStaged()
}

func (w *Writer) WriteInt32(v int32) bool {
	if w.stagedN == 0 {
		EncByteOrder.PutUint32(w.staged[:4], uint32(v))
		w.stagedN = 4
	}
	return w.flushStaged()
}

func (w *Writer) WriteInt64(v int64) bool {
	if w.stagedN == 0 {
		EncByteOrder.PutUint64(w.staged[:8], uint64(v))
		w.stagedN = 8
	}
	return w.flushStaged()
}

func (w *Writer) WriteFloat32(v float32) bool {
	if w.stagedN == 0 {
		EncByteOrder.PutUint32(w.staged[:4], math.Float32bits(v))
		w.stagedN = 4
	}
	return w.flushStaged()
}

func (w *Writer) WriteFloat64(v float64) bool {
	if w.stagedN == 0 {
		EncByteOrder.PutUint64(w.staged[:8], math.Float64bits(v))
		w.stagedN = 8
	}
	return w.flushStaged()
}

// WriteUUID writes the 16-byte id as two little-endian uint64 halves,
// most-significant half first.
func (w *Writer) WriteUUID(id [16]byte) bool {
	if w.stagedN == 0 {
		hi := uint64(id[0])<<56 | uint64(id[1])<<48 | uint64(id[2])<<40 | uint64(id[3])<<32 |
			uint64(id[4])<<24 | uint64(id[5])<<16 | uint64(id[6])<<8 | uint64(id[7])
		lo := uint64(id[8])<<56 | uint64(id[9])<<48 | uint64(id[10])<<40 | uint64(id[11])<<32 |
			uint64(id[12])<<24 | uint64(id[13])<<16 | uint64(id[14])<<8 | uint64(id[15])
		EncByteOrder.PutUint64(w.staged[0:8], hi)
		EncByteOrder.PutUint64(w.staged[8:16], lo)
		w.stagedN = 16
	}
	return w.flushStaged()
}

// WriteString writes an int32 byte-length prefix followed by the UTF-8
// bytes. Use WriteStringPtr for a nullable string.
func (w *Writer) WriteString(s string) bool {
	if !w.lenDone {
		if !w.WriteInt32(int32(len(s))) {
			return false
		}
		w.lenDone = true
	}
	for w.arrOff < len(s) {
		n := copy(w.buf.free(), s[w.arrOff:])
		w.buf.advance(n)
		w.arrOff += n
		if n == 0 {
			return false
		}
	}
	w.lenDone = false
	w.arrOff = 0
	return true
}

// WriteStringPtr encodes nil as the null length sentinel, distinguishable
// from an empty string.
func (w *Writer) WriteStringPtr(s *string) bool {
	if s == nil {
		return w.WriteInt32(kNullLen)
	}
	return w.WriteString(*s)
}

// WriteBytes encodes a nil slice as the null length sentinel.
func (w *Writer) WriteBytes(v []byte) bool {
	if v == nil {
		return w.WriteInt32(kNullLen)
	}
	if !w.lenDone {
		if !w.WriteInt32(int32(len(v))) {
			return false
		}
		w.lenDone = true
	}
	for w.arrOff < len(v) {
		n := copy(w.buf.free(), v[w.arrOff:])
		w.buf.advance(n)
		w.arrOff += n
		if n == 0 {
			return false
		}
	}
	w.lenDone = false
	w.arrOff = 0
	return true
}

func (w *Writer) WriteInt32Slice(v []int32) bool {
	if v == nil {
		return w.WriteInt32(kNullLen)
	}
	if !w.lenDone {
		if !w.WriteInt32(int32(len(v))) {
			return false
		}
		w.lenDone = true
	}
	for w.arrOff < len(v) {
		if !w.WriteInt32(v[w.arrOff]) {
			return false
		}
		w.arrOff++
	}
	w.lenDone = false
	w.arrOff = 0
	return true
}

func (w *Writer) WriteInt64Slice(v []int64) bool {
	if v == nil {
		return w.WriteInt32(kNullLen)
	}
	if !w.lenDone {
		if !w.WriteInt32(int32(len(v))) {
			return false
		}
		w.lenDone = true
	}
	for w.arrOff < len(v) {
		if !w.WriteInt64(v[w.arrOff]) {
			return false
		}
		w.arrOff++
	}
	w.lenDone = false
	w.arrOff = 0
	return true
}

func (w *Writer) WriteFloat64Slice(v []float64) bool {
	if v == nil {
		return w.WriteInt32(kNullLen)
	}
	if !w.lenDone {
		if !w.WriteInt32(int32(len(v))) {
			return false
		}
		w.lenDone = true
	}
	for w.arrOff < len(v) {
		if !w.WriteFloat64(v[w.arrOff]) {
			return false
		}
		w.arrOff++
	}
	w.lenDone = false
	w.arrOff = 0
	return true
}

// WriteMessage inlines a nested message: its own header and field sequence,
// no extra length prefix. A nil message is encoded as discriminator -1.
func (w *Writer) WriteMessage(m Message) bool {
	if m == nil && w.nested == nil {
		return w.WriteInt16(int16(kNilTypeId))
	}
	if w.nested == nil {
		w.nested = NewWriteCursor(m)
	}
	if !w.nested.WriteTo(w.buf) {
		return false
	}
	w.nested = nil
	return true
}
