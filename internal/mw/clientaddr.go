package mw

import (
	"context"
	"net"
	"net/http"
)

type contextKey string

const AddrCtxKey contextKey = "client_addr"

// ClientAddr stores the caller's network address in the request context.
// On the captive network clients talk to us directly, so RemoteAddr is the
// DHCP-assigned address; X-Real-IP covers the reverse-proxy setup.
func ClientAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.Header.Get("X-Real-IP")
		if addr == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				addr = r.RemoteAddr
			} else {
				addr = host
			}
		}

		ctx := context.WithValue(r.Context(), AddrCtxKey, addr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
