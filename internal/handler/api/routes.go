package api

import "github.com/labstack/echo/v4"

// Router composes the opsd handlers behind one route registration point.
type Router struct {
	ops    *OpsHandler
	stream *StreamHandler
}

func NewRouter(ops *OpsHandler, stream *StreamHandler) *Router {
	return &Router{ops: ops, stream: stream}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.ops.RegisterRoutes(e)
	r.stream.RegisterRoutes(e)
}
