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

package cfg

import (
	"strings"
	"testing"
)

type serverConf struct {
	Addr string
	Port int64
}

type appConf struct {
	Name   string
	Server serverConf
}

func TestMergeOverridesCaseInsensitively(t *testing.T) {
	var base, overlay Config
	if err := base.ReadFrom(&appConf{Name: "echo", Server: serverConf{Addr: "127.0.0.1", Port: 5080}}); err != nil {
		t.Fatal(err)
	}
	if err := overlay.ReadFromToml(strings.NewReader("[SERVER]\nport = 6000\n")); err != nil {
		t.Fatal(err)
	}
	if err := base.Merge(&overlay); err != nil {
		t.Fatal(err)
	}

	var out appConf
	if err := base.WriteTo(&out); err != nil {
		t.Fatal(err)
	}
	if out.Server.Port != 6000 {
		t.Fatalf("port not overridden: %d", out.Server.Port)
	}
	if out.Server.Addr != "127.0.0.1" || out.Name != "echo" {
		t.Fatalf("defaults lost: %+v", out)
	}
}

func TestMergeRejectsTypeMismatch(t *testing.T) {
	var base, overlay Config
	base.ReadFromToml(strings.NewReader(`port = 5080`))
	overlay.ReadFromToml(strings.NewReader(`port = "high"`))
	if err := base.Merge(&overlay); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestGetValueAndSetKeyValue(t *testing.T) {
	var c Config
	c.ReadFromToml(strings.NewReader("[server]\naddr = \"127.0.0.1:5080\"\n"))
	if v := c.GetValue("Server.Addr"); v != "127.0.0.1:5080" {
		t.Fatalf("got %v", v)
	}
	c.SetKeyValue("server.addr", "10.0.0.1:9")
	if v := c.GetValue("server.addr"); v != "10.0.0.1:9" {
		t.Fatalf("got %v", v)
	}
	if v := c.GetValue("no.such.key"); v != nil {
		t.Fatalf("got %v", v)
	}
}
