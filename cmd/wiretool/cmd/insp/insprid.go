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
	"fmt"
	"os"

	uuid "github.com/satori/go.uuid"

	"gridwire/pkg/cmd"
	"gridwire/pkg/proto"
	"gridwire/pkg/util"
)

type cmdInspRidT struct {
	cmd.Command
	rid proto.RequestId
}

func (c *cmdInspRidT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.SetSynopsis("<xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx>")
}

func (c *cmdInspRidT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if c.NArg() < 1 {
		err = fmt.Errorf("missing request ID string")
		return
	}
	err = c.rid.SetFromString(c.Arg(0))
	return
}

func (c *cmdInspRidT) Exec() {
	c.Validate()

	w := os.Stdout
	fmt.Fprintf(w, "* String\n  %s\n", c.rid.String())

	var uid uuid.UUID
	copy(uid[:], c.rid.Bytes())
	ver := uid.Version()
	if ver == 0 {
		fmt.Fprintf(w, "* Info\n  not a UUID\n")
		return
	}
	fmt.Fprintf(w, "* Info\n")
	fmt.Fprintf(w, "  Version  : %d\n", ver)
	fmt.Fprintf(w, "  Variant  : %d\n", uid.Variant())
	if ver == 1 {
		if tm, err := util.GetTimeFromUUIDv1(uid); err == nil {
			fmt.Fprintf(w, "  Timestamp: %d ns (%s)\n", tm.UnixNano(), tm.String())
		}
	}
}

func init() {
	c := &cmdInspRidT{}
	c.Init("ridinsp", "decode a request ID")

	cmd.Register(c)
}
