package middleware

import (
	midsec "ChatGate/middleware/security"

	"github.com/gin-gonic/gin"
)

// RouteOpt picks per-route middleware.
type RouteOpt struct {
	IsAuth bool
}

var authOpts *midsec.Options

// ConfigAuth sets the options used by IsAuth routes. Call once at startup.
func ConfigAuth(opts *midsec.Options) { authOpts = opts }

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(authOpts), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(authOpts), handler)
	} else {
		r.GET(path, handler)
	}
}
