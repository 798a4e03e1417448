package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector flags probing requests and resolves client addresses behind
// trusted proxies.
type Detector struct {
	suspicious     atomic.Int64
	invalidIP      atomic.Int64
	trustedProxies []netip.Prefix
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "wp-login", "phpmyadmin",
		".php", ".git", ".ssh", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "union select",
	}
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirbuster", "masscan", "zgrab",
	}
)

// NewDetector trusts loopback and private ranges as proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7"} {
		d.trustedProxies = append(d.trustedProxies, netip.MustParsePrefix(cidr))
	}
	return d
}

// AddTrustedProxy trusts forwarded headers from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	return nil
}

// DetectSuspiciousRequest reports requests that look like scans or injection
// attempts. Query values are checked decoded.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if d.suspiciousRequest(r) {
		d.suspicious.Add(1)
		return true
	}
	return false
}

func (d *Detector) suspiciousRequest(r *http.Request) bool {
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return true
	}
	if len(r.URL.RequestURI()) > 4096 {
		return true
	}

	haystacks := []string{strings.ToLower(r.URL.Path)}
	for _, values := range r.URL.Query() {
		for _, v := range values {
			haystacks = append(haystacks, strings.ToLower(v))
		}
	}
	for _, h := range haystacks {
		for _, p := range suspiciousPatterns {
			if strings.Contains(h, p) {
				return true
			}
		}
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range suspiciousAgents {
		if strings.Contains(ua, a) {
			return true
		}
	}
	return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5
}

// ExtractClientIP returns the peer address. When the peer is a trusted proxy
// it walks X-Forwarded-For from the right and returns the first hop that is
// not a trusted proxy; entries left of that hop are client supplied.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		d.invalidIP.Add(1)
		return host
	}
	peer = peer.Unmap()
	if !d.isTrustedProxy(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if addr, ok := d.forwardedClient(xff); ok {
			return addr.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
		d.invalidIP.Add(1)
	}
	return peer.String()
}

// forwardedClient returns the rightmost untrusted hop of xff. If every hop is
// a trusted proxy the leftmost one is returned.
func (d *Detector) forwardedClient(xff string) (netip.Addr, bool) {
	hops := strings.Split(xff, ",")
	var last netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			d.invalidIP.Add(1)
			return last, last.IsValid()
		}
		addr = addr.Unmap()
		if !d.isTrustedProxy(addr) {
			return addr, true
		}
		last = addr
	}
	return last, last.IsValid()
}

func (d *Detector) isTrustedProxy(ip netip.Addr) bool {
	for _, p := range d.trustedProxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}
