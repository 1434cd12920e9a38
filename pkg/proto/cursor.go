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

type (
	// Message is an ordered sequence of typed fields. Fields returns the
	// per-instance descriptor table walked by the cursors; its order is
	// the wire order and must never change for a given type. New fields
	// are appended, existing indices are frozen for cross-version
	// compatibility.
	//
	// Each descriptor performs exactly one codec operation; compound
	// values (tag+data payloads and the like) are declared as consecutive
	// fields so that suspension never replays a completed sub-value.
	Message interface {
		TypeId() TypeId
		Fields() []Field
	}

	// Field binds one wire field to its encode/decode closures. Write
	// reports false to suspend; Read reports (false, nil) to suspend and
	// a non-nil error only for corrupt input.
	Field struct {
		Name  string
		Write func(w *Writer) bool
		Read  func(r *Reader) (bool, error)
	}

	// WriteCursor sequences one message through a single complete encode
	// pass, possibly spanning many buffer fills. It is owned by exactly
	// one connection; no locking.
	WriteCursor struct {
		w       Writer
		msg     Message
		fields  []Field
		state   int
		hdrDone bool
	}

	// ReadCursor mirrors WriteCursor for decoding. The concrete message is
	// allocated from the registry once the header discriminator arrives.
	ReadCursor struct {
		r       Reader
		msg     Message
		fields  []Field
		state   int
		hdrDone bool
		nilMsg  bool

		// inlined is set on cursors decoding a nested message field.
		// Only there is the nil discriminator legal; at the top level
		// it would hand a nil message to the connection layer.
		inlined bool
	}
)

func NewWriteCursor(m Message) *WriteCursor {
	return &WriteCursor{msg: m, fields: m.Fields()}
}

// WriteTo writes the header once, then attempts fields in order, falling
// through to the next field while capacity remains. Returns false when the
// buffer is exhausted mid-field; the cursor stays parked on that field and
// the field's own sub-state resumes on the next call. Once complete,
// further calls are no-ops returning true.
func (c *WriteCursor) WriteTo(b *Buffer) bool {
	c.w.attach(b)
	defer c.w.detach()

	if !c.hdrDone {
		if !c.w.WriteInt16(int16(c.msg.TypeId())) {
			return false
		}
		c.hdrDone = true
	}
	for c.state < len(c.fields) {
		if !c.fields[c.state].Write(&c.w) {
			return false
		}
		c.state++
	}
	return true
}

func (c *WriteCursor) Done() bool {
	return c.hdrDone && c.state == len(c.fields)
}

func NewReadCursor(reg *Registry) *ReadCursor {
	c := &ReadCursor{}
	c.r.reg = reg
	return c
}

// ReadFrom consumes from b until the message completes, the buffer runs
// dry, or the frame proves corrupt. A field is only advanced past when its
// full value was available; indices are never revisited or skipped.
func (c *ReadCursor) ReadFrom(b *Buffer) (done bool, err error) {
	c.r.attach(b)
	defer c.r.detach()

	if !c.hdrDone {
		id, ok := c.r.ReadInt16()
		if !ok {
			return false, nil
		}
		c.hdrDone = true
		if TypeId(id) == kNilTypeId {
			if !c.inlined {
				return false, ErrCorruptFrame
			}
			c.nilMsg = true
			return true, nil
		}
		m, nerr := c.r.reg.New(TypeId(id))
		if nerr != nil {
			return false, nerr
		}
		c.msg = m
		c.fields = m.Fields()
	}
	if c.nilMsg {
		return true, nil
	}
	for c.state < len(c.fields) {
		ok, ferr := c.fields[c.state].Read(&c.r)
		if ferr != nil {
			return false, ferr
		}
		if !ok {
			return false, nil
		}
		c.state++
	}
	return true, nil
}

// Message returns the decoded message; nil when an inlined cursor decoded
// the nil-message discriminator. Valid only after ReadFrom reported done.
func (c *ReadCursor) Message() Message {
	return c.msg
}

func (c *ReadCursor) Done() bool {
	return c.hdrDone && (c.nilMsg || (c.msg != nil && c.state == len(c.fields)))
}

// Reset prepares the cursor for the next frame on the same channel.
func (c *ReadCursor) Reset() {
	reg := c.r.reg
	*c = ReadCursor{}
	c.r.reg = reg
}
