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

package stats

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRequestStatQuantiles(t *testing.T) {
	var s RequestStat
	for i := 1; i <= 100; i++ {
		s.Put(time.Duration(i)*time.Millisecond, nil)
	}
	s.Put(time.Millisecond, errors.New("x"))

	stat := s.GetStats()
	if stat.NumRequests != 101 {
		t.Fatalf("count %d", stat.NumRequests)
	}
	if stat.P50Latency < 40*time.Millisecond || stat.P50Latency > 60*time.Millisecond {
		t.Fatalf("p50 %v", stat.P50Latency)
	}
	if stat.MaxLatency < 99*time.Millisecond {
		t.Fatalf("max %v", stat.MaxLatency)
	}
	if s.NumErrors() != 1 {
		t.Fatalf("errors %d", s.NumErrors())
	}

	s.Reset()
	if s.GetTotalCount() != 0 || s.NumErrors() != 0 {
		t.Fatal("reset did not clear")
	}
}

func TestStatisticsPerType(t *testing.T) {
	s := NewStatistics()
	s.SetTypeName(3, "lock")
	s.Put(3, 2*time.Millisecond, nil)
	s.Put(3, 4*time.Millisecond, nil)
	s.Put(5, 10*time.Millisecond, errors.New("boom"))

	if s.GetNumRequests() != 3 {
		t.Fatalf("total %d", s.GetNumRequests())
	}

	var buf bytes.Buffer
	s.PrettyPrint(&buf)
	out := buf.String()
	if !strings.Contains(out, "lock") {
		t.Fatal("named type missing from report")
	}
	if !strings.Contains(out, "type-5") {
		t.Fatal("unnamed type missing from report")
	}

	s.Reset()
	if s.GetNumRequests() != 0 {
		t.Fatal("reset did not clear totals")
	}
}
