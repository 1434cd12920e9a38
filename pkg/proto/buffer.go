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

// Buffer is a fixed-capacity byte region with a position. On the write
// side data is the capacity window and pos the number of bytes produced;
// on the read side data holds the bytes received and pos the number
// consumed. The codec never retains a Buffer past a WriteTo/ReadFrom call.
type Buffer struct {
	data []byte
	pos  int
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

func (b *Buffer) Pos() int {
	return b.pos
}

// Bytes returns the prefix written or consumed so far.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.pos]
}

func (b *Buffer) Reset() {
	b.pos = 0
}

func (b *Buffer) free() []byte {
	return b.data[b.pos:]
}

func (b *Buffer) unread() []byte {
	return b.data[b.pos:]
}

func (b *Buffer) advance(n int) {
	b.pos += n
}
