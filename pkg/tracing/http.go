package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// untracedPrefixes are probe and tooling routes that would drown the form
// traffic in spans.
var untracedPrefixes = []string{"/health", "/metrics", "/swagger/"}

func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(traced))
}

func traced(r *http.Request) bool {
	for _, prefix := range untracedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}
