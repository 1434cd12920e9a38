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

import "testing"

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	ctor := func() Message { return &tRecord{} }

	if err := reg.Register(kTypeIdRecord, ctor); err != nil {
		t.Fatal(err)
	}
	if !reg.IsRegistered(kTypeIdRecord) {
		t.Fatal("type should be registered")
	}
	if err := reg.Register(kTypeIdRecord, ctor); err != ErrDupMessageType {
		t.Fatalf("duplicate registration must fail, got %v", err)
	}
	if err := reg.Register(TypeId(-1), ctor); err == nil {
		t.Fatal("negative ids are reserved")
	}

	m, err := reg.New(kTypeIdRecord)
	if err != nil {
		t.Fatal(err)
	}
	if _, isRecord := m.(*tRecord); !isRecord {
		t.Fatalf("constructor returned %T", m)
	}
}
