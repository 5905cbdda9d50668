// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the hardening headers for a JSON API
// that serves private journal data behind a reverse proxy. Responses must
// stay out of shared caches, but the history endpoint answers conditional
// requests with a weak ETag, so the cache policy allows revalidation
// instead of forbidding storage outright.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security on HTTPS requests only; leave
// it off unless traffic is HTTPS end to end, proxy hop included. HSTSMaxAge
// defaults to 180 days when zero. PrivateNoCache marks responses
// "Cache-Control: private, no-cache" so browsers revalidate with the ETag
// rather than serve stale journal data, and shared caches never store it.
// EnablePolicy adds browser feature policies; harmless for API clients.
type SecurityOptions struct {
	EnableHSTS     bool
	HSTSMaxAge     time.Duration
	PrivateNoCache bool
	EnablePolicy   bool
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityHeaders attaches the baseline hardening headers to every response:
// nosniff, frame denial, and no-referrer always; feature policies, the
// private cache policy, and HSTS per SecurityOptions. When upstream
// middleware set X-Request-ID, it is added to Access-Control-Expose-Headers
// so browser clients can read it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int(defaultHSTSMaxAge.Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.PrivateNoCache {
			h.Set("Cache-Control", "private, no-cache")
		}

		// Never on plain HTTP; a misapplied HSTS header is hard to undo.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS, directly or via a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
