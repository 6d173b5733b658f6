package platform

import "net/url"

// IsValidURL reports whether candidate parses as an absolute URL with both a
// scheme and a host. It never panics and never returns an error.
func IsValidURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
