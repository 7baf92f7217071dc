package pkg

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

var (
	localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1$`)
)

// IPIsLocal reports loopback addresses and docker bridge gateways.
func IPIsLocal(ip string) bool {
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return true
	}
	return localDockerIpRegex.MatchString(ip)
}

// ClientIP returns the address of the device that sent the request, honoring
// the proxy headers. Local addresses come back as "localhost".
func ClientIP(r *http.Request) string {
	addr := r.Header.Get("X-Real-Ip")
	if addr == "" {
		// first entry is the original client
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			addr = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	if addr == "" {
		addr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if IPIsLocal(addr) {
		return "localhost"
	}
	if net.ParseIP(addr) == nil {
		return "unknown"
	}
	return addr
}
