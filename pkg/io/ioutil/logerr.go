package ioutil

import (
	"io"
	"net"
	"os"
	"syscall"

	"github.com/golang/glog"
)

func LogError(err error) {
	if err == nil {
		return
	}

	if nerr, ok := err.(net.Error); ok {
		if nerr.Timeout() {
			glog.WarningDepth(1, err)
			return
		}
	}

	if opErr, ok := err.(*net.OpError); ok {
		if sErr, ok := opErr.Err.(*os.SyscallError); ok {
			if sErr.Err == syscall.ECONNRESET {
				glog.V(1).Info(err)
				return
			}
		}
		if opErr.Err.Error() == "use of closed network connection" {
			glog.V(1).Info(err)
			return
		}
	}

	if err == io.EOF {
		glog.V(1).Info(err)
	} else {
		glog.WarningDepth(1, err)
	}
}
