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
	"sort"
)

type (
	// Element is the tagged variant carried by generic collections and
	// maps: a kind byte on the wire followed by the value encoding.
	Element struct {
		Kind Kind
		Val  interface{}
	}

	MapEntry struct {
		Key Element
		Val Element
	}
)

func NullElem() Element               { return Element{Kind: KindNull} }
func ByteElem(v uint8) Element        { return Element{Kind: KindByte, Val: v} }
func BoolElem(v bool) Element         { return Element{Kind: KindBool, Val: v} }
func Int16Elem(v int16) Element       { return Element{Kind: KindInt16, Val: v} }
func Int32Elem(v int32) Element       { return Element{Kind: KindInt32, Val: v} }
func Int64Elem(v int64) Element       { return Element{Kind: KindInt64, Val: v} }
func Float32Elem(v float32) Element   { return Element{Kind: KindFloat32, Val: v} }
func Float64Elem(v float64) Element   { return Element{Kind: KindFloat64, Val: v} }
func StringElem(v string) Element     { return Element{Kind: KindString, Val: v} }
func UUIDElem(v [16]byte) Element     { return Element{Kind: KindUUID, Val: v} }
func BytesElem(v []byte) Element      { return Element{Kind: KindBytes, Val: v} }
func MessageElem(m Message) Element   { return Element{Kind: KindMessage, Val: m} }

// writeElement emits the kind tag then the value; resumable between the
// two and inside the value.
func (w *Writer) writeElement(e Element) bool {
	if !w.kindDone {
		if !w.WriteUint8(uint8(e.Kind)) {
			return false
		}
		w.kindDone = true
	}
	var done bool
	switch e.Kind {
	case KindNull:
		done = true
	case KindByte:
		done = w.WriteUint8(e.Val.(uint8))
	case KindBool:
		done = w.WriteBool(e.Val.(bool))
	case KindInt16:
		done = w.WriteInt16(e.Val.(int16))
	case KindInt32:
		done = w.WriteInt32(e.Val.(int32))
	case KindInt64:
		done = w.WriteInt64(e.Val.(int64))
	case KindFloat32:
		done = w.WriteFloat32(e.Val.(float32))
	case KindFloat64:
		done = w.WriteFloat64(e.Val.(float64))
	case KindString:
		done = w.WriteString(e.Val.(string))
	case KindUUID:
		done = w.WriteUUID(e.Val.([16]byte))
	case KindBytes:
		done = w.WriteBytes(e.Val.([]byte))
	case KindMessage:
		if e.Val == nil {
			done = w.WriteMessage(nil)
		} else {
			done = w.WriteMessage(e.Val.(Message))
		}
	}
	if done {
		w.kindDone = false
	}
	return done
}

func (r *Reader) readElement() (e Element, ok bool, err error) {
	if !r.kindDone {
		k, kok := r.ReadUint8()
		if !kok {
			return e, false, nil
		}
		if !Kind(k).isValid() {
			return e, false, ErrCorruptFrame
		}
		r.kind = Kind(k)
		r.kindDone = true
	}
	e.Kind = r.kind
	switch r.kind {
	case KindNull:
		ok = true
	case KindByte:
		e.Val, ok = r.ReadUint8()
	case KindBool:
		e.Val, ok = r.ReadBool()
	case KindInt16:
		e.Val, ok = r.ReadInt16()
	case KindInt32:
		e.Val, ok = r.ReadInt32()
	case KindInt64:
		e.Val, ok = r.ReadInt64()
	case KindFloat32:
		e.Val, ok = r.ReadFloat32()
	case KindFloat64:
		e.Val, ok = r.ReadFloat64()
	case KindString:
		e.Val, ok, err = r.ReadString()
	case KindUUID:
		e.Val, ok = r.ReadUUID()
	case KindBytes:
		e.Val, ok, err = r.ReadBytes()
	case KindMessage:
		var m Message
		m, ok, err = r.ReadMessage()
		e.Val = m
	}
	if err != nil {
		return Element{}, false, err
	}
	if !ok {
		return Element{}, false, nil
	}
	r.kindDone = false
	return e, true, nil
}

// WriteCollection streams a size prefix then tagged elements. Interrupted
// at element K, it resumes at element K+1, never re-writing 0..K. The
// caller must pass the same, identically-ordered slice on every retry.
func (w *Writer) WriteCollection(elems []Element) bool {
	if elems == nil && !w.colLenDone {
		return w.WriteInt32(kNullLen)
	}
	if !w.colLenDone {
		if !w.WriteInt32(int32(len(elems))) {
			return false
		}
		w.colLenDone = true
		w.colIdx = 0
	}
	for w.colIdx < len(elems) {
		if !w.writeElement(elems[w.colIdx]) {
			return false
		}
		w.colIdx++
	}
	w.colLenDone = false
	w.colIdx = 0
	return true
}

// WriteSet shares the collection encoding; de-duplication is a read-side
// semantic.
func (w *Writer) WriteSet(elems []Element) bool {
	return w.WriteCollection(elems)
}

// WriteMap alternates key and value per entry, resumable mid-entry (key
// written, value pending) or between entries. Entry order must be stable
// across retries; use SortedStringMapEntries and friends for Go maps.
func (w *Writer) WriteMap(entries []MapEntry) bool {
	if entries == nil && !w.colLenDone {
		return w.WriteInt32(kNullLen)
	}
	if !w.colLenDone {
		if !w.WriteInt32(int32(len(entries))) {
			return false
		}
		w.colLenDone = true
		w.colIdx = 0
		w.entryKeyDone = false
	}
	for w.colIdx < len(entries) {
		if !w.entryKeyDone {
			if !w.writeElement(entries[w.colIdx].Key) {
				return false
			}
			w.entryKeyDone = true
		}
		if !w.writeElement(entries[w.colIdx].Val) {
			return false
		}
		w.entryKeyDone = false
		w.colIdx++
	}
	w.colLenDone = false
	w.colIdx = 0
	return true
}

func (r *Reader) ReadCollection() (elems []Element, ok bool, err error) {
	if !r.colLenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.colCount = int(n)
		r.elems = make([]Element, 0, minInt(int(n), 1024))
		r.colLenDone = true
	}
	for len(r.elems) < r.colCount {
		e, eok, eerr := r.readElement()
		if eerr != nil {
			return nil, false, eerr
		}
		if !eok {
			return nil, false, nil
		}
		r.elems = append(r.elems, e)
	}
	elems = r.elems
	r.resetColl()
	return elems, true, nil
}

// ReadSet reconstructs a set, de-duplicating by equality. Set members must
// be scalar kinds.
func (r *Reader) ReadSet() (set map[interface{}]struct{}, ok bool, err error) {
	elems, ok, err := r.ReadCollection()
	if err != nil || !ok {
		return nil, ok, err
	}
	if elems == nil {
		return nil, true, nil
	}
	set = make(map[interface{}]struct{}, len(elems))
	for _, e := range elems {
		if !e.Kind.isScalar() {
			return nil, false, ErrCorruptFrame
		}
		set[e.Val] = struct{}{}
	}
	return set, true, nil
}

func (r *Reader) ReadMap() (entries []MapEntry, ok bool, err error) {
	if !r.colLenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.colCount = int(n)
		r.entries = make([]MapEntry, 0, minInt(int(n), 1024))
		r.colLenDone = true
		r.entryKeyDone = false
	}
	for len(r.entries) < r.colCount {
		if !r.entryKeyDone {
			k, kok, kerr := r.readElement()
			if kerr != nil {
				return nil, false, kerr
			}
			if !kok {
				return nil, false, nil
			}
			if !k.Kind.isScalar() {
				return nil, false, ErrCorruptFrame
			}
			r.entryKey = k
			r.entryKeyDone = true
		}
		v, vok, verr := r.readElement()
		if verr != nil {
			return nil, false, verr
		}
		if !vok {
			return nil, false, nil
		}
		r.entries = append(r.entries, MapEntry{Key: r.entryKey, Val: v})
		r.entryKeyDone = false
	}
	entries = r.entries
	r.resetColl()
	return entries, true, nil
}

// WriteStringSlice writes a homogeneous string collection without element
// tags.
func (w *Writer) WriteStringSlice(v []string) bool {
	if v == nil && !w.colLenDone {
		return w.WriteInt32(kNullLen)
	}
	if !w.colLenDone {
		if !w.WriteInt32(int32(len(v))) {
			return false
		}
		w.colLenDone = true
		w.colIdx = 0
	}
	for w.colIdx < len(v) {
		if !w.WriteString(v[w.colIdx]) {
			return false
		}
		w.colIdx++
	}
	w.colLenDone = false
	w.colIdx = 0
	return true
}

func (r *Reader) ReadStringSlice() (v []string, ok bool, err error) {
	if !r.colLenDone {
		n, lok, lerr := r.readLen(true)
		if lerr != nil || !lok {
			return nil, false, lerr
		}
		if n == kNullLen {
			return nil, true, nil
		}
		r.colCount = int(n)
		r.elemStr = make([]string, 0, minInt(int(n), 1024))
		r.colLenDone = true
	}
	for len(r.elemStr) < r.colCount {
		s, sok, serr := r.ReadString()
		if serr != nil {
			return nil, false, serr
		}
		if !sok {
			return nil, false, nil
		}
		r.elemStr = append(r.elemStr, s)
	}
	v = r.elemStr
	r.elemStr = nil
	r.resetColl()
	return v, true, nil
}

func (r *Reader) resetColl() {
	r.colLenDone = false
	r.colCount = 0
	r.colIdx = 0
	r.elems = nil
	r.entries = nil
	r.entryKeyDone = false
	r.entryKey = Element{}
}

// MapFromEntries applies standard mapping semantics: keys unique, last
// write wins on duplicates.
func MapFromEntries(entries []MapEntry) map[interface{}]interface{} {
	if entries == nil {
		return nil
	}
	m := make(map[interface{}]interface{}, len(entries))
	for _, e := range entries {
		m[e.Key.Val] = e.Val.Val
	}
	return m
}

// SortedStringMapEntries converts a Go map into entries ordered by key, so
// repeated write attempts of a suspended map field see a stable sequence.
func SortedStringMapEntries(m map[string]string) []MapEntry {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]MapEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, MapEntry{Key: StringElem(k), Val: StringElem(m[k])})
	}
	return entries
}

func SortedStringInt64MapEntries(m map[string]int64) []MapEntry {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]MapEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, MapEntry{Key: StringElem(k), Val: Int64Elem(m[k])})
	}
	return entries
}

func StringMapFromEntries(entries []MapEntry) (map[string]string, error) {
	if entries == nil {
		return nil, nil
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		k, kok := e.Key.Val.(string)
		v, vok := e.Val.Val.(string)
		if !kok || !vok {
			return nil, ErrBadElementType
		}
		m[k] = v
	}
	return m, nil
}

func StringInt64MapFromEntries(entries []MapEntry) (map[string]int64, error) {
	if entries == nil {
		return nil, nil
	}
	m := make(map[string]int64, len(entries))
	for _, e := range entries {
		k, kok := e.Key.Val.(string)
		v, vok := e.Val.Val.(int64)
		if !kok || !vok {
			return nil, ErrBadElementType
		}
		m[k] = v
	}
	return m, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
