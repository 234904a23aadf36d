package security

import (
	"net/http"
	"strings"

	"ChatGate/tools/errs"
	jwtlib "ChatGate/tools/security"

	"github.com/gin-gonic/gin"
)

// Context keys written by the middleware; downstream handlers read these.
const (
	CtxUserIDKey = "authUserID" // string (uuid text)
	CtxTokenKey  = "authToken"  // string
)

type Options struct {
	JWT jwtlib.Options

	HeaderToken               string // default "authorization"
	EnableAuthorizationBearer bool   // default true
}

func DefaultOptions(jwt jwtlib.Options) *Options {
	return &Options{
		JWT:                       jwt,
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware extracts the bearer token, verifies it, and stores the subject
// user id in the gin context. Requests without a valid token are rejected.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// accept both a bare token and "Authorization: Bearer <token>"
		if opts.EnableAuthorizationBearer {
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[len("bearer "):])
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		sub, err := jwtlib.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail(err.Error()))
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, sub)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
