package engine

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var bareVideoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes are the first path segments after which the video ID follows.
var pathPrefixes = map[string]bool{
	"embed":  true,
	"shorts": true,
	"live":   true,
	"v":      true,
	"e":      true,
}

// ParseVideoID normalises a YouTube URL or bare 11-char video ID to the ID.
// Accepts watch?v=, youtu.be/, /embed/, /shorts/, /live/, /v/ shapes on
// www., m., music. and youtube-nocookie hosts, with or without a scheme.
func ParseVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidIdentifier)
	}
	if bareVideoIDRe.MatchString(s) {
		return s, nil
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, input)
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, p)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segs[0]
	case "youtube.com", "youtube-nocookie.com":
		if len(segs) >= 1 && segs[0] == "watch" {
			id = u.Query().Get("v")
		} else if len(segs) >= 2 && pathPrefixes[segs[0]] {
			id = segs[1]
		}
	}
	if !bareVideoIDRe.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, input)
	}
	return id, nil
}
