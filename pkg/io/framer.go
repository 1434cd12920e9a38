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

package io

import (
	"bufio"
	"bytes"

	"gridwire/pkg/proto"
)

// FrameWriter serializes messages into a byte sink through a write cursor,
// one bounded chunk at a time. Frames carry no length envelope; the codec's
// own field structure delimits them.
type FrameWriter struct {
	scratch []byte
}

func NewFrameWriter(chunkSize int) *FrameWriter {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &FrameWriter{scratch: make([]byte, chunkSize)}
}

// Append encodes m fully into dst and returns the number of bytes added.
// The cursor may suspend many times against the bounded scratch buffer;
// every pass appends only the bytes produced so far, so the concatenation
// is identical to a single unbounded write.
func (f *FrameWriter) Append(dst *bytes.Buffer, m proto.Message) (n int, err error) {
	cur := proto.NewWriteCursor(m)
	for {
		b := proto.NewBuffer(f.scratch)
		done := cur.WriteTo(b)
		dst.Write(b.Bytes())
		n += b.Pos()
		if done {
			return n, nil
		}
		if b.Pos() == 0 {
			return n, proto.NewProtocolError("write cursor stalled")
		}
	}
}

// FrameReader decodes messages from a buffered connection. A read that
// drains the socket mid-frame parks the cursor; the next Read resumes
// exactly where decoding stopped. Bytes past a frame boundary are retained
// for the following frame.
type FrameReader struct {
	r       *bufio.Reader
	cur     *proto.ReadCursor
	scratch []byte
	pend    *proto.Buffer
}

func NewFrameReader(r *bufio.Reader, reg *proto.Registry, chunkSize int) *FrameReader {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &FrameReader{
		r:       r,
		cur:     proto.NewReadCursor(reg),
		scratch: make([]byte, chunkSize),
	}
}

// ReadFrame blocks until one full message is decoded or the underlying
// reader fails. Decode errors (corrupt frame, unknown type) are fatal for
// the connection; the caller must close it since the stream position is
// unrecoverable.
func (f *FrameReader) ReadFrame() (m proto.Message, err error) {
	for {
		if f.pend == nil || f.pend.Remaining() == 0 {
			var n int
			if n, err = f.r.Read(f.scratch); err != nil {
				return nil, err
			}
			f.pend = proto.NewBuffer(f.scratch[:n])
		}
		done, derr := f.cur.ReadFrom(f.pend)
		if derr != nil {
			return nil, derr
		}
		if done {
			m = f.cur.Message()
			f.cur.Reset()
			return m, nil
		}
	}
}

// Buffered reports bytes already pulled off the socket but not yet
// consumed by the cursor.
func (f *FrameReader) Buffered() int {
	n := f.r.Buffered()
	if f.pend != nil {
		n += f.pend.Remaining()
	}
	return n
}
