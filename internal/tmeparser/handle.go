package tmeparser

import (
	"regexp"
	"strconv"
	"strings"
)

// Handle is a normalized channel reference. Exactly one of Username or
// ChatID is set: public channels resolve to a username, private ones to a
// numeric chat id.
type Handle struct {
	Username string
	ChatID   int64
}

func (h Handle) IsPrivate() bool { return h.ChatID != 0 }

var usernameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// ParseHandle normalizes user input referencing a channel: @username,
// bare username, https://t.me/username, or a numeric private-channel id
// (-100...).
func ParseHandle(input string) (Handle, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Handle{}, false
	}

	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		if id >= 0 {
			return Handle{}, false
		}
		return Handle{ChatID: id}, true
	}

	input = strings.TrimPrefix(input, "https://")
	input = strings.TrimPrefix(input, "http://")
	input = strings.TrimPrefix(input, "t.me/")
	input = strings.TrimPrefix(input, "telegram.me/")
	input = strings.TrimPrefix(input, "@")
	if i := strings.IndexByte(input, '/'); i >= 0 {
		input = input[:i]
	}
	if i := strings.IndexByte(input, '?'); i >= 0 {
		input = input[:i]
	}

	if !usernameRE.MatchString(input) {
		return Handle{}, false
	}
	return Handle{Username: input}, true
}

var postLinkRE = regexp.MustCompile(`^(?:https?://)?t\.me/([A-Za-z][A-Za-z0-9_]{3,31})/(\d+)/?$`)

// ParsePostLink extracts the channel username and message id from a
// t.me post URL.
func ParsePostLink(link string) (string, int64, bool) {
	m := postLinkRE.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return "", 0, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return m[1], id, true
}
