package ws

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// OriginPolicy decides which browser origins may open sockets or call the
// REST API. "*" allows every origin.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginPolicy(origins []string) OriginPolicy {
	p := OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.allowAll = true
			continue
		}
		n, ok := normalizeOrigin(o)
		if !ok {
			zap.L().Warn("ws.origin_ignored", zap.String("origin", o))
			continue
		}
		p.allowed[n] = struct{}{}
	}
	return p
}

func (p OriginPolicy) AllowAll() bool { return p.allowAll }

// Allowed reports whether origin may connect. An empty origin comes from a
// non-browser client and is let through.
func (p OriginPolicy) Allowed(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	n, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, ok = p.allowed[n]
	return ok
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
