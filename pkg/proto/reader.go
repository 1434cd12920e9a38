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

// Reader is the resumable primitive decoder, the mirror of Writer. A
// value is returned only when it is fully available; until then the
// Reader accumulates partial bytes without double-consuming input, and
// the caller re-invokes the same Read* once more data arrives.
type Reader struct {
	reg *Registry
	buf *Buffer

	// fixed-width value in flight
	staged  [16]byte
	stagedN int

	// string/bytes/typed-slice value in flight
	lenDone bool
	length  int
	arr     []byte
	arrOff  int
	elemI32 []int32
	elemI64 []int64
	elemF64 []float64
	elemStr []string

	// generic collection/map in flight
	colLenDone   bool
	colCount     int
	colIdx       int
	elems        []Element
	kindDone     bool
	kind         Kind
	entryKeyDone bool
	entryKey     Element
	entries      []MapEntry

	// nested message in flight
	nested *ReadCursor
}

func (r *Reader) attach(b *Buffer) {
	r.buf = b
}

func (r *Reader) detach() {
	r.buf = nil
}

// readFixed accumulates n bytes into staged across calls; true once all n
// are available in staged[:n].
func (r *Reader) readFixed(n int) bool {
	c := copy(r.staged[r.stagedN:n], r.buf.unread())
	r.buf.advance(c)
	r.stagedN += c
	if r.stagedN == n {
		r.stagedN = 0
		return true
	}
	return false
}

func (r *Reader) ReadUint8() (uint8, bool) {
	if !r.readFixed(1) {
		return 0, false
	}
	return r.staged[0], true
}

func (r *Reader) ReadBool() (bool, bool) {
	v, ok := r.ReadUint8()
	return v != 0, ok
}

func (r *Reader) ReadInt16() (int16, bool) {
	if !r.readFixed(2) {
		return 0, false
	}
	return int16(EncByteOrder.Uint16(r.staged[:2])), true
}

func (r *Reader) ReadInt32() (int32, bool) {
	if !r.readFixed(4) {
		return 0, false
	}
	return int32(EncByteOrder.Uint32(r.staged[:4])), true
}

func (r *Reader) ReadInt64() (int64, bool) {
	if !r.readFixed(8) {
		return 0, false
	}
	return int64(EncByteOrder.Uint64(r.staged[:8])), true
}

func (r *Reader) ReadFloat32() (float32, bool) {
	if !r.readFixed(4) {
		return 0, false
	}
	return math.Float32frombits(EncByteOrder.Uint32(r.staged[:4])), true
}

func (r *Reader) ReadFloat64() (float64, bool) {
	if !r.readFixed(8) {
		return 0, false
	}
	return math.Float64frombits(EncByteOrder.Uint64(r.staged[:8])), true
}

func (r *Reader) ReadUUID() (id [16]byte, ok bool) {
	if !r.readFixed(16) {
		return id, false
	}
	hi := EncByteOrder.Uint64(r.staged[0:8])
	lo := EncByteOrder.Uint64(r.staged[8:16])
	for i := 0; i < 8; i++ {
		id[i] = byte(hi >> uint(56-8*i))
		id[8+i] = byte(lo >> uint(56-8*i))
	}
	return id, true
}

// readLen decodes an int32 length prefix. nullOK permits the -1 sentinel;
// any other negative value, or one beyond the sanity cap, is a corrupt
// frame.
func (r *Reader) readLen(nullOK bool) (n int32, ok bool, err error) {
	n, ok = r.ReadInt32()
	if !ok {
		return 0, false, nil
	}
	if n == kNullLen && nullOK {
		return n, true, nil
	}
	if n < 0 || n > kMaxLenPrefix {
		return 0, false, ErrCorruptFrame
	}
	return n, true, nil
}

func (r *Reader) ReadString() (s string, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(false)
		if lerr != nil || !lok {
			return "", false, lerr
		}
		r.length = int(n)
		r.arr = make([]byte, n)
		r.arrOff = 0
		r.lenDone = true
	}
	for r.arrOff < r.length {
		n := copy(r.arr[r.arrOff:], r.buf.unread())
		r.buf.advance(n)
		r.arrOff += n
		if n == 0 {
			return "", false, nil
		}
	}
	s = string(r.arr)
	r.resetArr()
	return s, true, nil
}

func (r *Reader) ReadStringPtr() (s *string, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.length = int(n)
		r.arr = make([]byte, n)
		r.arrOff = 0
		r.lenDone = true
	}
	for r.arrOff < r.length {
		n := copy(r.arr[r.arrOff:], r.buf.unread())
		r.buf.advance(n)
		r.arrOff += n
		if n == 0 {
			return nil, false, nil
		}
	}
	v := string(r.arr)
	r.resetArr()
	return &v, true, nil
}

func (r *Reader) ReadBytes() (v []byte, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.length = int(n)
		r.arr = make([]byte, n)
		r.arrOff = 0
		r.lenDone = true
	}
	for r.arrOff < r.length {
		n := copy(r.arr[r.arrOff:], r.buf.unread())
		r.buf.advance(n)
		r.arrOff += n
		if n == 0 {
			return nil, false, nil
		}
	}
	v = r.arr
	r.resetArr()
	return v, true, nil
}

func (r *Reader) ReadInt32Slice() (v []int32, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.length = int(n)
		r.elemI32 = make([]int32, 0, n)
		r.lenDone = true
	}
	for len(r.elemI32) < r.length {
		e, eok := r.ReadInt32()
		if !eok {
			return nil, false, nil
		}
		r.elemI32 = append(r.elemI32, e)
	}
	v = r.elemI32
	r.elemI32 = nil
	r.resetArr()
	return v, true, nil
}

func (r *Reader) ReadInt64Slice() (v []int64, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.length = int(n)
		r.elemI64 = make([]int64, 0, n)
		r.lenDone = true
	}
	for len(r.elemI64) < r.length {
		e, eok := r.ReadInt64()
		if !eok {
			return nil, false, nil
		}
		r.elemI64 = append(r.elemI64, e)
	}
	v = r.elemI64
	r.elemI64 = nil
	r.resetArr()
	return v, true, nil
}

func (r *Reader) ReadFloat64Slice() (v []float64, ok bool, err error) {
	if !r.lenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.length = int(n)
		r.elemF64 = make([]float64, 0, n)
		r.lenDone = true
	}
	for len(r.elemF64) < r.length {
		e, eok := r.ReadFloat64()
		if !eok {
			return nil, false, nil
		}
		r.elemF64 = append(r.elemF64, e)
	}
	v = r.elemF64
	r.elemF64 = nil
	r.resetArr()
	return v, true, nil
}

// ReadMessage decodes an inlined nested message; the -1 discriminator
// yields a nil message.
func (r *Reader) ReadMessage() (m Message, ok bool, err error) {
	if r.nested == nil {
		r.nested = NewReadCursor(r.reg)
		r.nested.inlined = true
	}
	done, derr := r.nested.ReadFrom(r.buf)
	if derr != nil {
		return nil, false, derr
	}
	if !done {
		return nil, false, nil
	}
	m = r.nested.Message()
	r.nested = nil
	return m, true, nil
}

func (r *Reader) resetArr() {
	r.lenDone = false
	r.length = 0
	r.arr = nil
	r.arrOff = 0
}
