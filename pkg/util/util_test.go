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

package util

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	uuid "github.com/satori/go.uuid"
)

func TestAffinitySlotIsStable(t *testing.T) {
	key := []byte("order-42")
	first := AffinitySlot(key, 8)
	for i := 0; i < 100; i++ {
		if AffinitySlot(key, 8) != first {
			t.Fatal("same key mapped to different slots")
		}
	}
	if first >= 8 {
		t.Fatalf("slot %d out of range", first)
	}
	if AffinitySlot(key, 0) != 0 {
		t.Fatal("zero slots must map to 0")
	}
}

func TestAffinitySlotSpreadsKeys(t *testing.T) {
	hit := make(map[uint32]bool)
	for i := 0; i < 256; i++ {
		hit[AffinitySlot([]byte{byte(i), byte(i >> 1)}, 4)] = true
	}
	if len(hit) != 4 {
		t.Fatalf("256 keys landed on only %d of 4 slots", len(hit))
	}
}

func TestDurationTomlRoundTrip(t *testing.T) {
	var cfg struct {
		Timeout Duration
	}
	if err := toml.Unmarshal([]byte(`Timeout = "1m30s"`), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout.Duration != 90*time.Second {
		t.Fatalf("got %v", cfg.Timeout)
	}
	text, err := cfg.Timeout.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1m30s" {
		t.Fatalf("got %q", text)
	}
	if err := toml.Unmarshal([]byte(`Timeout = "soon"`), &cfg); err == nil {
		t.Fatal("bad duration must not parse")
	}
}

func TestGetTimeFromUUIDv1(t *testing.T) {
	before := time.Now()
	tm, err := GetTimeFromUUIDv1(uuid.NewV1())
	if err != nil {
		t.Fatal(err)
	}
	if tm.Before(before.Add(-time.Minute)) || tm.After(time.Now().Add(time.Minute)) {
		t.Fatalf("timestamp %v not close to now", tm)
	}

	if _, err = GetTimeFromUUIDv1(uuid.NewV4()); err == nil {
		t.Fatal("v4 UUID must be rejected")
	}
}

func TestBufferPools(t *testing.T) {
	pools := map[string]BufferPool{
		"sync": NewSyncBufferPool(1024),
		"chan": NewChanBufferPool(2, 1024),
	}
	for name, pool := range pools {
		buf := pool.Get()
		if buf.Len() != 0 {
			t.Fatalf("%s: dirty buffer from pool", name)
		}
		buf.WriteString("payload")
		pool.Put(buf)

		buf = pool.Get()
		if buf.Len() != 0 {
			t.Fatalf("%s: Put must reset the buffer", name)
		}
		pool.Put(buf)
	}
}

func TestBufioPools(t *testing.T) {
	var sink bytes.Buffer
	bw := NewBufioWriter(&sink, 64)
	bw.WriteString("hello")
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	PutBufioWriter(bw)
	if sink.String() != "hello" {
		t.Fatalf("unexpected sink %q", sink.String())
	}

	// a recycled writer must bind to the new sink, not the old one
	var sink2 bytes.Buffer
	bw = NewBufioWriter(&sink2, 64)
	bw.WriteString("again")
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	PutBufioWriter(bw)
	if sink.String() != "hello" || sink2.String() != "again" {
		t.Fatalf("writer leaked across sinks: %q %q", sink.String(), sink2.String())
	}

	br := NewBufioReader(strings.NewReader("abc"), 64)
	b, err := br.ReadByte()
	if err != nil || b != 'a' {
		t.Fatalf("read %q err %v", b, err)
	}
	PutBufioReader(br)
}

func TestTimerWrapper(t *testing.T) {
	w := NewTimerWrapper(time.Millisecond)
	if w.GetTimeoutCh() != nil {
		t.Fatal("stopped timer must expose a nil channel")
	}
	w.Reset(5 * time.Millisecond)
	select {
	case <-w.GetTimeoutCh():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	// reset after expiry must not deliver the stale tick
	w.Stop()
	w.Reset(50 * time.Millisecond)
	select {
	case <-w.GetTimeoutCh():
		t.Fatal("stale tick delivered right after reset")
	case <-time.After(5 * time.Millisecond):
	}
	w.Stop()
}
