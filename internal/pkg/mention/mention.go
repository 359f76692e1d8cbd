// Package mention normalizes user references out of chat command text.
// Targets arrive in several decorated forms depending on the client:
// a text-mention link ("tg://user?id=123"), a Markdown mention
// ("[name](tg://user?id=123)"), or a plain "@username".
package mention

import "regexp"

var (
	linkPattern     = regexp.MustCompile(`^(?:\[[^\]]*\]\()?tg://user\?id=(\d+)\)?$`)
	usernamePattern = regexp.MustCompile(`^@([A-Za-z0-9_]{1,32})$`)
)

// NormalizeID extracts the raw user id out of a decorated mention string.
// Strings that are not id-bearing mentions are returned unchanged, so
// callers can pass already-normalized ids through.
func NormalizeID(target string) string {
	if m := linkPattern.FindStringSubmatch(target); m != nil {
		return m[1]
	}
	return target
}

// Username extracts the bare username out of an "@username" mention.
// Returns the username and true, or "" and false when the string is not
// a username mention.
func Username(target string) (string, bool) {
	if m := usernamePattern.FindStringSubmatch(target); m != nil {
		return m[1], true
	}
	return "", false
}
