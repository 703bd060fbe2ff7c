package resolver

import (
	"net/http"
	"strings"
)

// contentPlaceholder marks the substitution point in a target URL template.
// Only a trailing placeholder is recognized, matching how registry target
// URLs are published.
const contentPlaceholder = "${content}"

// Redirect is a resolved identifier: where to send the client and with
// which status code.
type Redirect struct {
	// URL is the fully substituted destination.
	URL string

	// StatusCode is the redirect status from the registry target.
	StatusCode int

	// Prefix is the registered prefix that matched, for logging.
	Prefix string
}

// ResolveRedirect resolves an identifier against the map. At most one
// leading slash is stripped from the identifier before matching, so
// "ark:/12345/x" and "ark:12345/x" resolve identically. The destination is
// the target URL with its trailing placeholder removed and the full
// stripped identifier appended; the placeholder marks a base URL, not a
// remainder slot, so the matched prefix appears in the destination too.
func ResolveRedirect(identifier string, m *Map) (*Redirect, error) {
	identifier = strings.TrimPrefix(identifier, "/")

	prefix, target, err := m.Match(identifier)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(target.URL, contentPlaceholder)

	code := target.HTTPCode
	if code == 0 {
		// Registry records normally carry an explicit code; treat an
		// absent one as a plain temporary redirect.
		code = http.StatusFound
	}

	return &Redirect{
		URL:        base + identifier,
		StatusCode: code,
		Prefix:     prefix,
	}, nil
}
