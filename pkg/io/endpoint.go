package io

import (
	"fmt"
	"strings"
)

type (
	ServiceEndpoint struct {
		Addr    string
		Network string
	}

	ListenerConfig struct {
		ServiceEndpoint
		Name string
	}
)

func (p *ServiceEndpoint) Validate() (err error) {
	if len(p.Addr) == 0 {
		err = fmt.Errorf("ServiceEndpoint.Addr not specified")
	}
	return
}

func (p *ServiceEndpoint) GetConnString() (str string) {
	if strings.Contains(p.Addr, ":") {
		str = p.Addr
	} else {
		str = ":" + p.Addr
	}
	return
}

func (p *ServiceEndpoint) SetFromConnString(connStr string) error {
	str := strings.ToLower(connStr)
	if !strings.Contains(str, ":") {
		p.Addr = ":" + str
	} else {
		p.Addr = str
	}
	return nil
}
