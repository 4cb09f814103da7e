package pipeline

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL prefixes bare profile identifiers.
const DefaultBaseURL = "https://www.linkedin.com/in/"

// ErrInvalidTarget is returned by ResolveTarget for unusable input.
var ErrInvalidTarget = errors.New("invalid profile URL")

var (
	linkedInProfile = regexp.MustCompile(`^https?://(www\.)?linkedin\.com/(in|pub)/[\w-]+/?`)
	bareIdentifier  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ResolveTarget turns a profile URL or bare identifier into the URL to load.
//
// Absolute URLs must be LinkedIn profile URLs, unless baseURL points at a
// different host, in which case the URL must be on that host. Bare
// identifiers are appended to baseURL.
func ResolveTarget(input, baseURL string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrInvalidTarget
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if !strings.Contains(input, "://") {
		if !bareIdentifier.MatchString(input) {
			return "", ErrInvalidTarget
		}
		return strings.TrimSuffix(baseURL, "/") + "/" + input, nil
	}

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidTarget
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", ErrInvalidTarget
	}
	if isLinkedIn(base.Hostname()) {
		if !linkedInProfile.MatchString(input) {
			return "", ErrInvalidTarget
		}
		return input, nil
	}
	if !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return "", ErrInvalidTarget
	}
	return input, nil
}

func isLinkedIn(host string) bool {
	host = strings.ToLower(host)
	return host == "linkedin.com" || host == "www.linkedin.com"
}
