package io

import (
	"context"
	"time"

	"github.com/golang/glog"

	"gridwire/pkg/proto"
)

// Response status codes reported by the io layer itself, distinct from any
// application status carried inside a message.
const (
	StatusOk = uint32(iota)
	StatusNoConn
	StatusBusy
	StatusTimeout
	StatusConnClosed
)

type (
	IResponseContext interface {
		GetStatus() uint32
		GetMessage() proto.Message
		OnComplete()
	}

	IRequestContext interface {
		GetMessage() proto.Message
		GetCtx() context.Context
		Cancel()
		Reply(resp IResponseContext)
		OnComplete()
		GetReceiveTime() time.Time
		SetTimeout(parent context.Context, duration time.Duration)
	}

	// Implement IRequestContext
	RequestContext struct {
		parentCtx    context.Context
		ctx          context.Context
		cancelCtx    context.CancelFunc
		message      proto.Message
		chResponse   chan<- IResponseContext
		timeReceived time.Time
	}

	InboundRequestContext struct {
		RequestContext
	}

	OutboundRequestContext struct {
		RequestContext
	}

	// Implement IResponseContext
	ResponseContext struct {
		message proto.Message
		status  uint32
	}
)

func NewInboundRequestContext(m proto.Message, c *Connector) (r *InboundRequestContext) {
	r = &InboundRequestContext{
		RequestContext: RequestContext{
			message:      m,
			chResponse:   c.chResponse,
			timeReceived: time.Now(),
		},
	}
	return
}

func NewOutboundRequestContext(m proto.Message, ctx context.Context,
	ch chan<- IResponseContext) (r *OutboundRequestContext) {
	r = &OutboundRequestContext{
		RequestContext: RequestContext{
			ctx:          ctx,
			message:      m,
			chResponse:   ch,
			timeReceived: time.Now(),
		},
	}
	return
}

func NewResponseContext(m proto.Message) *ResponseContext {
	return &ResponseContext{message: m}
}

func NewErrorResponse(status uint32) *ResponseContext {
	return &ResponseContext{status: status}
}

func (r *ResponseContext) GetStatus() uint32 {
	return r.status
}

func (r *ResponseContext) GetMessage() proto.Message {
	return r.message
}

func (r *ResponseContext) OnComplete() {
}

func (r *RequestContext) SetTimeout(parent context.Context, timeout time.Duration) {
	if parent == nil {
		r.parentCtx = context.Background()
	} else {
		r.parentCtx = parent
	}
	r.ctx, r.cancelCtx = context.WithTimeout(r.parentCtx, timeout)
}

func (r *RequestContext) GetMessage() proto.Message {
	return r.message
}

func (r *RequestContext) GetCtx() context.Context {
	return r.ctx
}

func (r *RequestContext) Cancel() {
	if r.cancelCtx != nil {
		r.cancelCtx()
	}
}

func (r *RequestContext) Reply(resp IResponseContext) {
	if r.parentCtx != nil {
		select {
		case <-r.parentCtx.Done():
			glog.Warningf("request context canceled. %s", r.parentCtx.Err().Error())
		case r.chResponse <- resp:
		}
	} else {
		r.chResponse <- resp
	}
}

func (r *RequestContext) OnComplete() {
}

func (r *RequestContext) GetReceiveTime() time.Time {
	return r.timeReceived
}

func (r *OutboundRequestContext) Reply(resp IResponseContext) {
	if r.ctx != nil {
		select {
		case <-r.ctx.Done():
			resp.OnComplete()
			return
		default:
		}
	}

	select {
	case r.chResponse <- resp:
	default:
		glog.V(1).Infof("result channel busy, drop the response")
		resp.OnComplete()
	}
}

func ReplyError(req IRequestContext, status uint32) {
	if glog.V(2) {
		glog.Infof("replyError: status=%d", status)
	}
	req.Reply(NewErrorResponse(status))
}
