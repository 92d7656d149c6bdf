package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IPWhitelist only lets through requests whose client IP matches one of the
// entries. Entries may be single addresses or CIDR ranges; unparsable entries
// are ignored. An empty list allows everyone.
func IPWhitelist(entries []string) gin.HandlerFunc {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil {
				bits := 8 * net.IPv6len
				if ip.To4() != nil {
					ip, bits = ip.To4(), 8*net.IPv4len
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			}
			continue
		}
		if _, n, err := net.ParseCIDR(e); err == nil {
			nets = append(nets, n)
		}
	}
	return func(c *gin.Context) {
		if len(entries) == 0 {
			c.Next()
			return
		}
		ip := net.ParseIP(c.ClientIP())
		for _, n := range nets {
			if ip != nil && n.Contains(ip) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}
