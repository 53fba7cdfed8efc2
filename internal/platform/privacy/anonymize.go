// Package privacy provides utilities for handling personally identifiable
// information in log output. Sign-in flows are email-heavy; logs keep enough
// of the address to correlate events without storing the full identifier.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// MaskEmail keeps the first character of the local part and the full domain:
// "alice@example.com" -> "a***@example.com". Unparseable input is fully
// masked rather than passed through.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// AnonymizeIP truncates an IP address to remove the host-identifying part.
// IPv4 addresses lose the last octet ("192.168.1.47" -> "192.168.1.0");
// IPv6 addresses keep only the /48 prefix.
//
// Returns "invalid" for unparseable addresses and "unknown" for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// AnonymizeAddr applies AnonymizeIP to a host:port remote address, dropping
// the port.
func AnonymizeAddr(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return AnonymizeIP(addr)
	}
	return AnonymizeIP(host)
}
