package io

// IRequestHandler processes decoded inbound requests. Process must reply
// through reqCtx before returning: the connector invokes it sequentially
// per connection so responses leave in request order, which peers rely on
// for correlation.
type IRequestHandler interface {
	Init()
	Process(reqCtx IRequestContext) error
	Finish()
}
