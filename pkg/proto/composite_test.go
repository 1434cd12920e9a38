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
	"reflect"
	"testing"
)

// writeField runs a single write closure to completion against buffers of
// the given chunk size and returns the produced bytes.
func writeField(t *testing.T, chunk int, fn func(*Writer) bool) []byte {
	t.Helper()
	var w Writer
	scratch := make([]byte, chunk)
	var out []byte
	for i := 0; ; i++ {
		b := NewBuffer(scratch)
		w.attach(b)
		done := fn(&w)
		w.detach()
		out = append(out, b.Bytes()...)
		if done {
			return out
		}
		if b.Pos() == 0 {
			t.Fatalf("no progress on pass %d", i)
		}
	}
}

func TestNullVersusEmpty(t *testing.T) {
	kNullWire := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	kEmptyWire := []byte{0x00, 0x00, 0x00, 0x00}

	cases := []struct {
		name string
		fn   func(*Writer) bool
		want []byte
	}{
		{"nil bytes", func(w *Writer) bool { return w.WriteBytes(nil) }, kNullWire},
		{"empty bytes", func(w *Writer) bool { return w.WriteBytes([]byte{}) }, kEmptyWire},
		{"nil string ptr", func(w *Writer) bool { return w.WriteStringPtr(nil) }, kNullWire},
		{"empty string", func(w *Writer) bool { return w.WriteString("") }, kEmptyWire},
		{"nil collection", func(w *Writer) bool { return w.WriteCollection(nil) }, kNullWire},
		{"empty collection", func(w *Writer) bool { return w.WriteCollection([]Element{}) }, kEmptyWire},
		{"nil map", func(w *Writer) bool { return w.WriteMap(nil) }, kNullWire},
		{"empty map", func(w *Writer) bool { return w.WriteMap([]MapEntry{}) }, kEmptyWire},
		{"nil int32 slice", func(w *Writer) bool { return w.WriteInt32Slice(nil) }, kNullWire},
	}
	for _, tc := range cases {
		got := writeField(t, 4096, tc.fn)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("%s: got % X, want % X", tc.name, got, tc.want)
		}
	}
}

func TestNullCollectionDistinctOnRead(t *testing.T) {
	roundTrip := func(elems []Element) []Element {
		wire := writeField(t, 4096, func(w *Writer) bool { return w.WriteCollection(elems) })
		var got []Element
		var r Reader
		b := NewBuffer(wire)
		r.attach(b)
		v, ok, err := r.ReadCollection()
		r.detach()
		if err != nil || !ok {
			t.Fatalf("decode failed: ok=%v err=%v", ok, err)
		}
		got = v
		return got
	}
	if got := roundTrip(nil); got != nil {
		t.Fatalf("null collection must decode to nil, got %#v", got)
	}
	if got := roundTrip([]Element{}); got == nil || len(got) != 0 {
		t.Fatalf("empty collection must decode to empty, got %#v", got)
	}
}

func TestCollectionElementKinds(t *testing.T) {
	elems := []Element{
		NullElem(),
		ByteElem(0x7F),
		BoolElem(true),
		Int16Elem(-300),
		Int32Elem(1 << 20),
		Int64Elem(-1 << 40),
		Float32Elem(1.25),
		Float64Elem(-9.5),
		StringElem("kind"),
		UUIDElem([16]byte{0xDE, 0xAD}),
		BytesElem([]byte{0, 1, 2}),
	}
	wire := writeField(t, 4096, func(w *Writer) bool { return w.WriteCollection(elems) })

	for _, chunk := range kChunkSizes {
		var r Reader
		var got []Element
		for off := 0; off < len(wire); {
			end := off + chunk
			if end > len(wire) {
				end = len(wire)
			}
			b := NewBuffer(wire[off:end])
			r.attach(b)
			v, ok, err := r.ReadCollection()
			r.detach()
			if err != nil {
				t.Fatalf("chunk %d: %v", chunk, err)
			}
			off += b.Pos()
			if ok {
				got = v
				break
			}
			if b.Remaining() != 0 {
				t.Fatalf("chunk %d: suspended with %d unread", chunk, b.Remaining())
			}
		}
		if !reflect.DeepEqual(got, elems) {
			t.Fatalf("chunk %d: got %#v, want %#v", chunk, got, elems)
		}
	}
}

func TestCollectionBadKindTag(t *testing.T) {
	wire := []byte{
		0x01, 0x00, 0x00, 0x00, // one element
		byte(kindLast), // out-of-range kind tag
	}
	var r Reader
	b := NewBuffer(wire)
	r.attach(b)
	_, ok, err := r.ReadCollection()
	r.detach()
	if ok || err != ErrCorruptFrame {
		t.Fatalf("expected ErrCorruptFrame, got ok=%v err=%v", ok, err)
	}
}

func TestMapRoundTripAndOrder(t *testing.T) {
	m := map[string]string{"zeta": "26", "alpha": "1", "mid": "13"}
	entries := SortedStringMapEntries(m)
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key.Val.(string) >= entries[i].Key.Val.(string) {
			t.Fatal("entries must be sorted by key")
		}
	}
	want := writeField(t, 4096, func(w *Writer) bool { return w.WriteMap(entries) })
	for _, chunk := range kChunkSizes {
		got := writeField(t, chunk, func(w *Writer) bool { return w.WriteMap(SortedStringMapEntries(m)) })
		if !bytes.Equal(got, want) {
			t.Fatalf("chunk %d: map bytes differ", chunk)
		}
	}

	var r Reader
	b := NewBuffer(want)
	r.attach(b)
	decoded, ok, err := r.ReadMap()
	r.detach()
	if err != nil || !ok {
		t.Fatalf("decode failed: ok=%v err=%v", ok, err)
	}
	got, err := StringMapFromEntries(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("got %v, want %v", got, m)
	}
}

func TestMapDuplicateKeyLastWins(t *testing.T) {
	entries := []MapEntry{
		{Key: StringElem("k"), Val: Int64Elem(1)},
		{Key: StringElem("k"), Val: Int64Elem(2)},
	}
	m := MapFromEntries(entries)
	if len(m) != 1 || m["k"] != int64(2) {
		t.Fatalf("last write must win, got %v", m)
	}
}

func TestMapRejectsNonScalarKey(t *testing.T) {
	entries := []MapEntry{{Key: BytesElem([]byte{1}), Val: Int64Elem(1)}}
	wire := writeField(t, 4096, func(w *Writer) bool { return w.WriteMap(entries) })

	var r Reader
	b := NewBuffer(wire)
	r.attach(b)
	_, ok, err := r.ReadMap()
	r.detach()
	if ok || err != ErrCorruptFrame {
		t.Fatalf("non-scalar map key must fail decode, got ok=%v err=%v", ok, err)
	}
}

func TestSetDeduplicatesOnRead(t *testing.T) {
	elems := []Element{StringElem("a"), StringElem("b"), StringElem("a")}
	wire := writeField(t, 4096, func(w *Writer) bool { return w.WriteSet(elems) })

	var r Reader
	b := NewBuffer(wire)
	r.attach(b)
	set, ok, err := r.ReadSet()
	r.detach()
	if err != nil || !ok {
		t.Fatalf("decode failed: ok=%v err=%v", ok, err)
	}
	if len(set) != 2 {
		t.Fatalf("set must deduplicate, got %d members", len(set))
	}
	for _, k := range []string{"a", "b"} {
		if _, found := set[k]; !found {
			t.Fatalf("member %q missing", k)
		}
	}
}

func TestStringSliceRoundTrip(t *testing.T) {
	for _, v := range [][]string{nil, {}, {""}, {"one", "two", ""}} {
		wire := writeField(t, 4096, func(w *Writer) bool { return w.WriteStringSlice(v) })
		for _, chunk := range kChunkSizes {
			var r Reader
			var got []string
			var done bool
			for off := 0; off < len(wire) && !done; {
				end := off + chunk
				if end > len(wire) {
					end = len(wire)
				}
				b := NewBuffer(wire[off:end])
				r.attach(b)
				s, ok, err := r.ReadStringSlice()
				r.detach()
				if err != nil {
					t.Fatal(err)
				}
				off += b.Pos()
				if ok {
					got, done = s, true
				}
			}
			if !done {
				t.Fatalf("chunk %d: incomplete", chunk)
			}
			if v == nil {
				if got != nil {
					t.Fatalf("chunk %d: want nil, got %#v", chunk, got)
				}
			} else if !reflect.DeepEqual(got, v) {
				t.Fatalf("chunk %d: got %#v, want %#v", chunk, got, v)
			}
		}
	}
}

func TestNestedNilMessage(t *testing.T) {
	reg := newTestRegistry(t)
	m := &tEnvelope{Inner: nil}
	wire := encodeChunked(t, m, 4096)
	got := decodeChunked(t, reg, wire, 2).(*tEnvelope)
	if got.Inner != nil {
		t.Fatalf("nil nested message must decode to nil, got %#v", got.Inner)
	}
}

func TestMessageElementInCollection(t *testing.T) {
	reg := newTestRegistry(t)
	m := &tEnvelope{
		Items: []Element{
			MessageElem(&tRecord{Id: 3, Name: "m", Vals: []int32{3}}),
			MessageElem(nil),
			Int32Elem(5),
		},
	}
	wire := encodeChunked(t, m, 4096)
	for _, chunk := range []int{1, 7, 4096} {
		got := decodeChunked(t, reg, wire, chunk).(*tEnvelope)
		if len(got.Items) != 3 {
			t.Fatalf("chunk %d: want 3 items, got %d", chunk, len(got.Items))
		}
		inner, isMsg := got.Items[0].Val.(*tRecord)
		if !isMsg || inner.Id != 3 || inner.Name != "m" {
			t.Fatalf("chunk %d: bad message element %#v", chunk, got.Items[0])
		}
		if got.Items[1].Kind != KindMessage || got.Items[1].Val != nil {
			t.Fatalf("chunk %d: nil message element mangled: %#v", chunk, got.Items[1])
		}
	}
}
