/* sanitize.go
 * Normalises the hosted links participants submit before they are graded or recorded
 */

package grading

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeLink fixes the malformed scheme markers "http//" and "https//" and prepends "http://"
// when no scheme is present. SanitizeLink(SanitizeLink(x)) == SanitizeLink(x).
func SanitizeLink(raw string) string {
	link := strings.TrimSpace(raw)
	link = strings.ReplaceAll(link, "https//", "https://")
	link = strings.ReplaceAll(link, "http//", "https://")

	lower := strings.ToLower(link)
	if !strings.Contains(lower, "http://") && !strings.Contains(lower, "https://") {
		link = "http://" + link
	}
	return link
}

// parseLink checks that a sanitised link is a navigable absolute url
func parseLink(link string) (*url.URL, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", link, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid url %q", link)
	}
	return u, nil
}
