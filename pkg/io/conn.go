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
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"
)

func Connect(endpoint *ServiceEndpoint, connectTimeout time.Duration) (conn net.Conn, err error) {
	network := endpoint.Network
	if len(network) == 0 {
		network = "tcp"
	}
	timeStart := time.Now()
	if conn, err = net.DialTimeout(network, endpoint.Addr, connectTimeout); err != nil {
		glog.ErrorDepth(1, fmt.Sprintf("fail to connect %s error: %s", endpoint.GetConnString(), err))
		return
	}
	if glog.V(1) {
		glog.InfoDepth(1, fmt.Sprintf("connected to %s in %s", endpoint.GetConnString(), time.Since(timeStart)))
	}
	return
}
