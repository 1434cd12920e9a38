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

// Package stats collects per-message-type latency histograms.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"gridwire/pkg/proto"
)

type (
	RequestStat struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		total     time.Duration
		numErrors int64
	}

	Statistics struct {
		mtx      sync.Mutex
		all      RequestStat
		requests map[proto.TypeId]*RequestStat
		names    map[proto.TypeId]string
		tmStart  time.Time
	}

	StatsData struct {
		Throughput   float32
		AvgLatency   time.Duration
		MinLatency   time.Duration
		MaxLatency   time.Duration
		P50Latency   time.Duration
		P95Latency   time.Duration
		P99Latency   time.Duration
		P9999Latency time.Duration
		NumRequests  int64
	}
)

func (s *RequestStat) Init() {
	if s.hist == nil {
		s.mtx.Lock()
		s.hist = hdrhistogram.New(1, int64(3600*time.Second), 3)
		s.mtx.Unlock()
	}
}

func (s *RequestStat) Put(tm time.Duration, err error) {
	if s.hist == nil {
		s.Init()
	}
	s.mtx.Lock()
	s.hist.RecordValues(int64(tm), 1)
	s.total += tm
	if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *RequestStat) GetStats() (stat StatsData) {
	if s.hist == nil {
		s.Init()
	}
	s.mtx.Lock()
	stat.NumRequests = s.hist.TotalCount()
	stat.MinLatency = time.Duration(s.hist.Min())
	stat.MaxLatency = time.Duration(s.hist.Max())
	stat.P50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.P95Latency = time.Duration(s.hist.ValueAtQuantile(95.))
	stat.P99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	stat.P9999Latency = time.Duration(s.hist.ValueAtQuantile(99.99))
	total := s.total
	s.mtx.Unlock()

	if stat.NumRequests != 0 {
		v := float32(total) / float32(stat.NumRequests)
		stat.AvgLatency = time.Duration(v)
		stat.Throughput = 1.0e9 / v
	}
	return
}

func (s *RequestStat) GetTotalCount() (num int64) {
	if s.hist == nil {
		s.Init()
	}
	s.mtx.Lock()
	num = s.hist.TotalCount()
	s.mtx.Unlock()
	return
}

func (s *RequestStat) NumErrors() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.numErrors
}

func (s *RequestStat) Reset() {
	if s.hist == nil {
		s.Init()
		return
	}
	s.mtx.Lock()
	s.hist.Reset()
	s.numErrors = 0
	s.total = 0
	s.mtx.Unlock()
}

func NewStatistics() *Statistics {
	s := &Statistics{
		requests: make(map[proto.TypeId]*RequestStat),
		names:    make(map[proto.TypeId]string),
		tmStart:  time.Now(),
	}
	s.all.Init()
	return s
}

func (s *Statistics) Put(typ proto.TypeId, tm time.Duration, err error) {
	s.all.Put(tm, err)
	s.forType(typ).Put(tm, err)
}

// PutFor records a round trip of the given message.
func (s *Statistics) PutFor(m proto.Message, tm time.Duration, err error) {
	s.Put(m.TypeId(), tm, err)
}

// SetTypeName labels a type id in PrettyPrint output.
func (s *Statistics) SetTypeName(typ proto.TypeId, name string) {
	s.mtx.Lock()
	s.names[typ] = name
	s.mtx.Unlock()
}

func (s *Statistics) forType(typ proto.TypeId) *RequestStat {
	s.mtx.Lock()
	st := s.requests[typ]
	if st == nil {
		st = &RequestStat{}
		st.Init()
		s.requests[typ] = st
	}
	s.mtx.Unlock()
	return st
}

func (s *Statistics) GetNumRequests() int64 {
	return s.all.GetTotalCount()
}

func (s *Statistics) Reset() {
	s.mtx.Lock()
	for _, st := range s.requests {
		st.Reset()
	}
	s.tmStart = time.Now()
	s.mtx.Unlock()
	s.all.Reset()
}

func (s *Statistics) typeName(typ proto.TypeId) string {
	if name, ok := s.names[typ]; ok {
		return name
	}
	return fmt.Sprintf("type-%d", typ)
}

func (s *Statistics) PrettyPrint(w io.Writer) {
	msfunc := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}

	fmt.Fprintln(w,
		`
 request/s  |                             request latency                                              |  number of |            |              | number of
  average   | average    | min        | max        |        50% |      95%   |      99%   |     99.99% |  requests  | percentage | message type |  errors
------------+------------+------------+------------+------------+------------+------------+------------+------------+------------+--------------+-------------`)
	wstatFunc := func(stat *StatsData, percentage float32, reqType string, numErrors int64) {
		fmt.Fprintf(w, "%12.2f %12s %12s %12s %12s %12s %12s %12s %12d %12.2f %12s %12d\n",
			stat.Throughput, msfunc(stat.AvgLatency), msfunc(stat.MinLatency), msfunc(stat.MaxLatency),
			msfunc(stat.P50Latency), msfunc(stat.P95Latency),
			msfunc(stat.P99Latency), msfunc(stat.P9999Latency),
			stat.NumRequests,
			percentage, reqType, numErrors)
	}
	stat4all := s.all.GetStats()

	s.mtx.Lock()
	types := make([]proto.TypeId, 0, len(s.requests))
	for typ := range s.requests {
		types = append(types, typ)
	}
	s.mtx.Unlock()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, typ := range types {
		s.mtx.Lock()
		st := s.requests[typ]
		name := s.typeName(typ)
		s.mtx.Unlock()

		stat := st.GetStats()
		if stat.NumRequests != 0 {
			wstatFunc(&stat, 100.0*float32(stat.NumRequests)/float32(stat4all.NumRequests), name, st.NumErrors())
		}
	}
	fmt.Fprintln(w,
		"------------+------------+------------+------------+------------+------------+------------+------------+------------+------------+--------------+-------------")
	wstatFunc(&stat4all, 100.0, "All", s.all.NumErrors())
}
