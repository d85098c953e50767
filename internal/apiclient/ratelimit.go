package apiclient

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo is the server-reported rate limit state from the most
// recent response.
type RateLimitInfo struct {
	Remaining int
	Reset     time.Time
}

// parseRateLimit reads the standard rate limit headers. Both the X-prefixed
// and the bare header names are recognized. Reset values are accepted as a
// unix timestamp or as seconds-from-now; anything below a year's worth of
// seconds is treated as a delta.
func parseRateLimit(h http.Header, now time.Time) *RateLimitInfo {
	remaining := firstHeader(h, "X-RateLimit-Remaining", "RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	info := &RateLimitInfo{Remaining: n}
	if reset := firstHeader(h, "X-RateLimit-Reset", "RateLimit-Reset"); reset != "" {
		if v, err := strconv.ParseInt(reset, 10, 64); err == nil {
			const deltaThreshold = 365 * 24 * 3600
			if v < deltaThreshold {
				info.Reset = now.Add(time.Duration(v) * time.Second)
			} else {
				info.Reset = time.Unix(v, 0)
			}
		}
	}
	return info
}

func firstHeader(h http.Header, names ...string) string {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// retryAfter parses the Retry-After header as delay seconds or HTTP date.
func retryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}
