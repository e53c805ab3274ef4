package utils

import (
	"net/url"
	"strconv"
	"strings"
)

const youtubeEmbedBase = "https://www.youtube.com/embed/"

// EmbedVideoURL converts YouTube watch, short and youtu.be links into an embeddable URL.
// Other links are returned trimmed but otherwise unchanged.
func EmbedVideoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	var id string
	switch host {
	case "youtu.be":
		id = path
	case "youtube.com":
		switch {
		case path == "watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			id = strings.TrimPrefix(path, "shorts/")
		case strings.HasPrefix(path, "embed/"):
			id = strings.TrimPrefix(path, "embed/")
		case strings.HasPrefix(path, "live/"):
			id = strings.TrimPrefix(path, "live/")
		}
	default:
		return raw
	}

	if id == "" || strings.Contains(id, "/") {
		return raw
	}
	return youtubeEmbedBase + id
}

// NormalizeCouponCode trims and upper-cases a coupon code
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SplitNumbers splits a comma separated list, trimming entries and dropping blanks
func SplitNumbers(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsDigits reports whether s is a non-empty string of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParsePagination reads page and limit query values, applying defaults and a ceiling
func ParsePagination(pageStr, limitStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
