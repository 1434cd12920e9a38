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
	"testing"
)

func TestRequestIdLifecycle(t *testing.T) {
	var rid RequestId
	if rid.IsSet() {
		t.Fatal("zero id must not report set")
	}
	rid.SetNewRequestId()
	if !rid.IsSet() {
		t.Fatal("fresh id must report set")
	}

	var other RequestId
	if err := other.SetFromBytes(rid.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !rid.Equal(other) {
		t.Fatal("byte round trip changed the id")
	}

	var parsed RequestId
	if err := parsed.SetFromString(rid.String()); err != nil {
		t.Fatal(err)
	}
	if !rid.Equal(parsed) {
		t.Fatal("string round trip changed the id")
	}

	if err := other.SetFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("short byte slice must be rejected")
	}
	if err := parsed.SetFromString("not-a-uuid"); err == nil {
		t.Fatal("malformed string must be rejected")
	}
}

func TestRequestIdEncodesAsUUIDField(t *testing.T) {
	var rid RequestId
	rid.SetNewRequestId()

	var w Writer
	b := NewBuffer(make([]byte, 32))
	w.attach(b)
	if !w.WriteUUID(rid) {
		t.Fatal("write should complete in one pass")
	}
	w.detach()
	if b.Pos() != 16 {
		t.Fatalf("uuid field must be 16 bytes, wrote %d", b.Pos())
	}

	var r Reader
	rb := NewBuffer(b.Bytes())
	r.attach(rb)
	got, ok := r.ReadUUID()
	r.detach()
	if !ok || RequestId(got) != rid {
		t.Fatalf("uuid round trip mismatch: got %v want %v", got, rid)
	}
}
