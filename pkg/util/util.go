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

/*
Package util implements some utility functions.
*/
package util

import (
	"encoding/binary"
	"fmt"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/spaolacci/murmur3"
)

func Murmur3Hash(data []byte) uint32 {
	return murmur3.Sum32(data)
}

// AffinitySlot maps a key onto one of n slots. Requests sharing a key
// always land on the same slot, so they reach the same downstream
// connection in order.
func AffinitySlot(key []byte, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return Murmur3Hash(key) % n
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() (text []byte, err error) {
	text = []byte(d.Duration.String())
	return
}

const uuidEpoch = 122192928000000000 // UUID epoch (October 15, 1582)

func GetTimeFromUUIDv1(id uuid.UUID) (tm time.Time, err error) {
	if id[6]&0xF0 != 0x10 {
		err = fmt.Errorf("not v1 UUID")
		return
	}
	var buf [8]byte
	buf[0] = id[6] & 0xF
	buf[1] = id[7]
	buf[2] = id[4]
	buf[3] = id[5]
	copy(buf[4:], id[:4])

	timestamp := (binary.BigEndian.Uint64(buf[:]) - uuidEpoch) * 100
	tm = time.Unix(0, int64(timestamp))
	return
}
