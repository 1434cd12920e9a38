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

package insp

import (
	"encoding/hex"
	"fmt"

	"gridwire/pkg/cmd"
	"gridwire/pkg/msg"
	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

type cmdInspMsgT struct {
	cmd.Command
	frame []byte
}

func (c *cmdInspMsgT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.SetSynopsis("<hex-string>")
	c.AddExample(name+" 0100020061620000000000000000000000000000ffffffff",
		"\tdecode a hex-encoded frame")
}

func (c *cmdInspMsgT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if c.NArg() < 1 {
		err = fmt.Errorf("missing hex frame")
		return
	}
	if c.frame, err = hex.DecodeString(c.Arg(0)); err != nil {
		return
	}
	return
}

func (c *cmdInspMsgT) Exec() {
	c.Validate()

	util.HexDump(c.frame)
	fmt.Println()

	buf := proto.NewBuffer(c.frame)
	cur := proto.NewReadCursor(msg.NewRegistry())
	for buf.Remaining() > 0 {
		done, err := cur.ReadFrom(buf)
		if err != nil {
			fmt.Println(err)
			return
		}
		if !done {
			fmt.Printf("* frame truncated after %d byte(s)\n", buf.Pos())
			return
		}
		m := cur.Message()
		fmt.Printf("* type %d\n  %v\n", m.TypeId(), m)
		cur.Reset()
	}
}

func init() {
	c := &cmdInspMsgT{}
	c.Init("inspect", "decode a hex-encoded wire frame")

	cmd.Register(c)
}
