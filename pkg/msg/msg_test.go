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
	"bytes"
	"reflect"
	"testing"

	"gridwire/pkg/proto"
)

var kChunkSizes = []int{1, 3, 7, 16, 1024}

func encode(t testing.TB, m proto.Message, chunk int) []byte {
	t.Helper()
	cur := proto.NewWriteCursor(m)
	scratch := make([]byte, chunk)
	var out []byte
	for {
		b := proto.NewBuffer(scratch)
		done := cur.WriteTo(b)
		out = append(out, b.Bytes()...)
		if done {
			return out
		}
		if b.Pos() == 0 {
			t.Fatal("write made no progress")
		}
	}
}

func decode(t testing.TB, wire []byte, chunk int) proto.Message {
	t.Helper()
	cur := proto.NewReadCursor(NewRegistry())
	for off := 0; off < len(wire); off += chunk {
		end := off + chunk
		if end > len(wire) {
			end = len(wire)
		}
		done, err := cur.ReadFrom(proto.NewBuffer(wire[off:end]))
		if err != nil {
			t.Fatalf("decode at offset %d: %v", off, err)
		}
		if done {
			if end != len(wire) {
				t.Fatalf("frame completed %d bytes early", len(wire)-end)
			}
			return cur.Message()
		}
	}
	t.Fatal("frame incomplete")
	return nil
}

func TestMessageSetRoundTrip(t *testing.T) {
	errmsg := "task exploded"
	var chunk SnapshotChunk
	chunk.SnapshotId = 9
	chunk.Seq = 3
	chunk.Payload.SetWithClearValue([]byte("snapshot bytes"))

	granted := &LockResponse{LockId: 7, Granted: true, Status: StatusOk}
	granted.RequestId.SetNewRequestId()

	msgs := []proto.Message{
		NewHandshake([16]byte{1, 2}, map[string]string{"zone": "z1", "build": "abc123"}),
		NewLockRequest(7, []string{"orders/41", "orders/42"}, 250),
		granted,
		&chunk,
		&JobRequest{TaskName: "rebalance", Args: []string{"-n", "3"},
			Weights:    []float64{0.5, 0.25},
			Deployment: &DeploymentInfo{Zone: "z1", Stage: "prod", NumShards: 16}},
		&JobResult{Status: StatusBadTask, ErrMsg: &errmsg,
			Metrics: map[string]int64{"rows": 120, "ms": 18}},
	}
	for _, m := range msgs {
		want := encode(t, m, 4096)
		for _, chunkSz := range kChunkSizes {
			if got := encode(t, m, chunkSz); !bytes.Equal(got, want) {
				t.Fatalf("%T chunk %d: chunked bytes differ", m, chunkSz)
			}
			got := decode(t, want, chunkSz)
			if !reflect.DeepEqual(m, got) {
				t.Fatalf("%T chunk %d: round trip mismatch\n got %#v\nwant %#v",
					m, chunkSz, got, m)
			}
		}
	}
}

func TestLockResponseHolder(t *testing.T) {
	resp := &LockResponse{LockId: 5, Granted: false, Status: StatusNoCapacity}
	if _, ok := resp.GetHolder(); ok {
		t.Fatal("holder must be absent until set")
	}
	wire := encode(t, resp, 4096)

	withHolder := &LockResponse{LockId: 5}
	withHolder.SetHolder([16]byte{0xAB, 0xCD})
	longer := encode(t, withHolder, 4096)
	if len(longer) != len(wire)+16 {
		t.Fatalf("holder field must add exactly 16 bytes: %d vs %d", len(longer), len(wire))
	}

	got := decode(t, longer, 1).(*LockResponse)
	holder, ok := got.GetHolder()
	if !ok || holder != ([16]byte{0xAB, 0xCD}) {
		t.Fatalf("holder lost in transit: ok=%v holder=%v", ok, holder)
	}

	got = decode(t, wire, 1).(*LockResponse)
	if _, ok = got.GetHolder(); ok {
		t.Fatal("unflagged frame must decode with holder absent")
	}
}

func TestJobRequestNilDeployment(t *testing.T) {
	req := NewJobRequest("compact", nil)
	wire := encode(t, req, 4096)
	got := decode(t, wire, 2).(*JobRequest)
	if got.Deployment != nil {
		t.Fatalf("nil nested message decoded as %#v", got.Deployment)
	}
	if !bytes.Equal(got.GetAffinityKey(), req.RequestId.Bytes()) {
		t.Fatal("affinity key must fall back to the request id")
	}

	req.AffinityKey = []byte("tenant-9")
	if string(req.GetAffinityKey()) != "tenant-9" {
		t.Fatal("explicit affinity key must win")
	}
}

func TestJobRequestCreateResult(t *testing.T) {
	req := NewJobRequest("noop", nil)
	res := req.CreateResult(StatusOk)
	if !res.RequestId.Equal(req.RequestId) {
		t.Fatal("result must carry the request id")
	}
	res.SetError(StatusInternal, "boom")
	if res.ErrMsg == nil || *res.ErrMsg != "boom" || res.Status != StatusInternal {
		t.Fatal("SetError must set status and message")
	}
}

func TestBatchMixedMessages(t *testing.T) {
	var b Batch
	b.Append(
		NewLockRequest(1, []string{"k"}, 10),
		&SnapshotChunk{SnapshotId: 2, Seq: 0, Last: true},
		NewHandshake([16]byte{9}, nil),
	)
	wire := encode(t, &b, 4096)
	for _, chunk := range kChunkSizes {
		got := decode(t, wire, chunk).(*Batch)
		if !reflect.DeepEqual(&b, got) {
			t.Fatalf("chunk %d: batch mismatch\n got %#v\nwant %#v", chunk, got, &b)
		}
	}
}

func TestSnapshotChunkCompressedPayload(t *testing.T) {
	var m SnapshotChunk
	m.SnapshotId = 1
	m.Last = true
	m.Payload.SetWithClearValue(bytes.Repeat([]byte("chunk "), 256))
	if err := m.Payload.Compress(); err != nil {
		t.Fatal(err)
	}

	got := decode(t, encode(t, &m, 4096), 3).(*SnapshotChunk)
	if got.Payload.GetPayloadType() != proto.PayloadTypeSnappy {
		t.Fatal("payload tag lost in transit")
	}
	clear, err := got.Payload.GetClearValue()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(clear, bytes.Repeat([]byte("chunk "), 256)) {
		t.Fatal("payload bytes corrupted")
	}
}
