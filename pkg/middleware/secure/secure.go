package secure

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// New returns a middleware that sets browser security headers.
// Strict transport and a locked-down content policy apply only in production,
// where the docs UI is not served.
func New(production bool) gin.HandlerFunc {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.ContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	}
	headers := secure.New(opts)

	return func(c *gin.Context) {
		if err := headers.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
