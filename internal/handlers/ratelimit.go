package handlers

import (
	"net/http"
	"net/netip"
	"strings"
)

// RateLimiter throttles unauthenticated endpoints by client address.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest keys the limiter by endpoint scope and client address.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + clientIP(r))
}

// clientIP prefers the first well-formed X-Forwarded-For entry and falls
// back to the connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if addrPort, err := netip.ParseAddrPort(remote); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(remote); err == nil {
		return addr.Unmap().String()
	}
	return remote
}
