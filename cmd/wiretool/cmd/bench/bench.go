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

// Package bench implements the load driver subcommand.
package bench

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"gridwire/pkg/cfg"
	"gridwire/pkg/cmd"
	"gridwire/pkg/io"
	"gridwire/pkg/msg"
	"gridwire/pkg/proto"
	"gridwire/pkg/stats"
)

type (
	Config struct {
		Server          io.ServiceEndpoint
		Outbound        io.OutboundConfig
		RequestPattern  string
		NumExecutor     int
		PayloadLen      int
		NumReqPerSecond int
		RunningTime     int
		StatOutputRate  int
	}

	cmdOptions struct {
		cfgFile         string
		server          string
		requestPattern  string
		numExecutor     int
		payloadLen      int
		numReqPerSecond int
		runningTime     int
		statOutputRate  int
	}

	benchDriver struct {
		cmd.Command

		cmdOpts cmdOptions
		config  Config

		stats   *stats.Statistics
		payload []byte
	}
)

var (
	kDefaultServerAddr     = "127.0.0.1:5080"
	kDefaultRequestPattern = "J:1,L:1,S:1"
)

const (
	kDefaultPayloadLength   = 2048
	kDefaultNumReqPerSecond = 1000
	kDefaultNumExecutor     = 1
	kDefaultRunningTime     = 100
	kDefaultStatOutputRate  = 10
)

func (d *benchDriver) setDefaultConfig() {
	d.config.Server.Addr = kDefaultServerAddr
	d.config.Outbound = io.DefaultOutboundConfig
	d.config.RequestPattern = kDefaultRequestPattern
	d.config.NumExecutor = kDefaultNumExecutor
	d.config.PayloadLen = kDefaultPayloadLength
	d.config.NumReqPerSecond = kDefaultNumReqPerSecond
	d.config.RunningTime = kDefaultRunningTime
	d.config.StatOutputRate = kDefaultStatOutputRate
}

func (d *benchDriver) Init(name string, desc string) {
	d.Command.Init(name, desc)
	d.StringOption(&d.cmdOpts.server, "s|server", kDefaultServerAddr, "specify server address")
	d.StringOption(&d.cmdOpts.cfgFile, "c|config", "", "specify toml configuration file name")
	d.StringOption(&d.cmdOpts.requestPattern, "p|request-pattern", kDefaultRequestPattern, `specify request pattern, a sequence of requests to be
	invoked in format
	  <Req>:<num>[{,<Req>:<num>}]
	Supported type of Requests:
	  J    JOB
	  L    LOCK
	  S    SNAPSHOT CHUNK
	`)
	d.IntOption(&d.cmdOpts.numExecutor, "n|num-executor", kDefaultNumExecutor, "specify the number of executors to be running in parallel")
	d.IntOption(&d.cmdOpts.payloadLen, "l|payload-length", kDefaultPayloadLength, "specify payload length")
	d.IntOption(&d.cmdOpts.numReqPerSecond, "f|num-req-per-second", kDefaultNumReqPerSecond, "specify expected throughput per executor")
	d.IntOption(&d.cmdOpts.runningTime, "t|running-time", kDefaultRunningTime, "specify driver's running time in second")
	d.IntOption(&d.cmdOpts.statOutputRate, "o|stat-output-rate", kDefaultStatOutputRate, "specify how often to output statistic information in second")

	t := &benchDriver{}
	t.setDefaultConfig()
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Encode(&t.config)
	d.AddDetails("\tConfig properties and default values if not defined:\n" +
		"\t\t" + strings.Replace(buf.String(), "\n", "\n\t\t", -1))

	d.AddExample(name+" -s 127.0.0.1:5080",
		"\trun the driver against a server listening on 127.0.0.1:5080")
	d.AddExample(name+" -c config.toml", "\trun the driver with options specified in config.toml")
}

func (d *benchDriver) Parse(args []string) (err error) {
	if err = d.Command.Parse(args); err != nil {
		return
	}
	d.setDefaultConfig()

	if len(d.cmdOpts.cfgFile) != 0 {
		if err = loadLayeredConfig(d.cmdOpts.cfgFile, &d.config); err != nil {
			return err
		}
	}
	if d.cmdOpts.server != kDefaultServerAddr {
		d.config.Server.Addr = d.cmdOpts.server
	}
	if d.cmdOpts.requestPattern != kDefaultRequestPattern {
		d.config.RequestPattern = d.cmdOpts.requestPattern
	}
	if d.cmdOpts.numExecutor != kDefaultNumExecutor {
		d.config.NumExecutor = d.cmdOpts.numExecutor
	}
	if d.cmdOpts.payloadLen != kDefaultPayloadLength {
		d.config.PayloadLen = d.cmdOpts.payloadLen
	}
	if d.cmdOpts.numReqPerSecond != kDefaultNumReqPerSecond {
		d.config.NumReqPerSecond = d.cmdOpts.numReqPerSecond
	}
	if d.cmdOpts.runningTime != kDefaultRunningTime {
		d.config.RunningTime = d.cmdOpts.runningTime
	}
	if d.cmdOpts.statOutputRate != kDefaultStatOutputRate {
		d.config.StatOutputRate = d.cmdOpts.statOutputRate
	}
	d.config.Outbound.SetDefaultIfNotDefined()
	return d.config.Server.Validate()
}

// loadLayeredConfig overlays the file on top of the defaults already in
// conf, so a partial file only overrides what it names.
func loadLayeredConfig(file string, conf interface{}) error {
	var layered, overlay cfg.Config
	if err := layered.ReadFrom(conf); err != nil {
		return err
	}
	if err := overlay.ReadFromTomlFile(file); err != nil {
		return fmt.Errorf("failed to load config file %s. %s", file, err)
	}
	if err := layered.Merge(&overlay); err != nil {
		return err
	}
	return layered.WriteTo(conf)
}

type requestSequence struct {
	types []byte
}

func (s *requestSequence) initFromPattern(pattern string) error {
	for _, part := range strings.Split(pattern, ",") {
		kv := strings.Split(strings.TrimSpace(part), ":")
		typ := strings.ToUpper(kv[0])
		num := 1
		if len(kv) == 2 {
			fmt.Sscanf(kv[1], "%d", &num)
		}
		if typ != "J" && typ != "L" && typ != "S" {
			return fmt.Errorf("unsupported request type %q", typ)
		}
		for i := 0; i < num; i++ {
			s.types = append(s.types, typ[0])
		}
	}
	if len(s.types) == 0 {
		return fmt.Errorf("empty request pattern")
	}
	return nil
}

func (d *benchDriver) newRequest(seq *requestSequence, i int, snapSeq *int32) proto.Message {
	switch seq.types[i%len(seq.types)] {
	case 'J':
		req := msg.NewJobRequest("bench", []string{"-q"})
		return req
	case 'L':
		return msg.NewLockRequest(int64(i), []string{fmt.Sprintf("key-%d", i)}, 1000)
	default:
		*snapSeq++
		chunk := &msg.SnapshotChunk{SnapshotId: 1, Seq: *snapSeq}
		chunk.Payload.SetWithClearValue(d.payload)
		chunk.Payload.Compress()
		return chunk
	}
}

func (d *benchDriver) runExecutor(proc *io.OutboundProcessor, chDone chan struct{}) {
	seq := &requestSequence{}
	if err := seq.initFromPattern(d.config.RequestPattern); err != nil {
		glog.Error(err)
		return
	}

	interval := time.Second / time.Duration(d.config.NumReqPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	respCh := make(chan io.IResponseContext, 1)
	var snapSeq int32

	for i := 0; ; i++ {
		select {
		case <-chDone:
			return
		case <-ticker.C:
		}

		m := d.newRequest(seq, i, &snapSeq)
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		req := io.NewOutboundRequestContext(m, ctx, respCh)

		// snapshot chunks are bulk transfer and yield to the other traffic
		send := proc.SendRequest
		if _, bulk := m.(*msg.SnapshotChunk); bulk {
			send = proc.SendRequestLowPriority
		}

		var err error
		if serr := send(req); serr != nil {
			err = serr
		} else {
			select {
			case resp := <-respCh:
				if resp.GetStatus() != io.StatusOk {
					err = fmt.Errorf("io status %d", resp.GetStatus())
				}
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		cancel()
		d.stats.PutFor(m, time.Since(start), err)
	}
}

func (d *benchDriver) Exec() {
	d.Validate()

	d.stats = stats.NewStatistics()
	d.stats.SetTypeName(msg.TypeIdJobRequest, "Job")
	d.stats.SetTypeName(msg.TypeIdLockRequest, "Lock")
	d.stats.SetTypeName(msg.TypeIdSnapshotChunk, "Snapshot")

	d.payload = make([]byte, d.config.PayloadLen)
	rand.Read(d.payload)

	proc := io.NewOutbProcessor(d.config.Server, msg.NewRegistry(), &d.config.Outbound, true)
	defer proc.Shutdown()

	var wg sync.WaitGroup
	chDone := make(chan struct{})

	for i := 0; i < d.config.NumExecutor; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runExecutor(proc, chDone)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		timer := time.NewTimer(time.Duration(d.config.RunningTime) * time.Second)
		ticker := time.NewTicker(time.Duration(d.config.StatOutputRate) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-timer.C:
				timer.Stop()
				close(chDone)
				return
			case <-ticker.C:
				d.stats.PrettyPrint(os.Stdout)
			}
		}
	}()

	wg.Wait()
	fmt.Println("\nFinal:")
	d.stats.PrettyPrint(os.Stdout)
}

func init() {
	c := &benchDriver{}
	c.Init("bench", "drive load against a gridwire server")

	cmd.Register(c)
}
