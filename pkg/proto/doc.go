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
Package proto implements the gridwire resumable binary message protocol.

A message is an ordered sequence of typed fields. Frames are written and
read incrementally, field by field, against bounded caller-owned buffers.
When a buffer fills mid-field the codec suspends (returns false) and the
per-message cursor retains enough state to resume on the next call with a
fresh buffer, without re-encoding completed fields or bytes. The read side
mirrors this, reconstructing a message as bytes arrive.

Frame layout

  +-----------------------+--------------------------------------------+
  | 2-byte header         | field data                                 |
  | int16 LE discriminator| field 0, field 1, ... in declaration order |
  +-----------------------+--------------------------------------------+

All integers are little-endian and fixed-width. Variable-length values
carry an int32 length prefix; -1 marks a null value, distinct from an
empty one.

  byte      1 byte
  bool      1 byte, 0 or 1
  int16     2 bytes LE
  int32     4 bytes LE
  int64     8 bytes LE
  float32   4 bytes LE, IEEE-754
  float64   8 bytes LE, IEEE-754
  uuid      16 bytes, two LE uint64 halves, most-significant first
  string    [int32 length][UTF-8 bytes]
  bytes     [int32 length | -1][raw bytes]
  slice     [int32 length | -1][untagged elements]
  coll/set  [int32 size | -1][kind byte, element]*
  map       [int32 size | -1][kind byte, key, kind byte, value]*
  message   int16 discriminator (-1 for nil) followed by its fields

Field state indices are assigned at design time and are stable across
protocol versions: new fields are appended, never reordered or renumbered.
Version-conditional trailing fields are guarded by presence-flag fields;
a missing optional field decodes to its default and is never an error.

A cursor is owned by exactly one connection. Parallelism is across
messages, never within one; no locks are taken in this package.
*/
package proto
