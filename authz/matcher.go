package authz

import "strings"

// Separator splits action names into segments.
const Separator = "."

// MatchPattern reports whether a permission pattern grants the required
// action. Patterns are dot-separated; "*" matches exactly one segment, and a
// trailing "*" matches one or more remaining segments:
//
//   - "*"                 matches everything
//   - "folder.*"          matches "folder.create" and "folder.lock.get"
//   - "*.get"             matches "preview.get" but not "folder.lock.get"
//   - "file.attributes.*" matches "file.attributes.get"
//   - "list"              matches only "list"
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" {
		return true
	}

	pat := strings.Split(pattern, Separator)
	req := strings.Split(required, Separator)
	for i, p := range pat {
		last := i == len(pat)-1
		if i >= len(req) {
			return false
		}
		if p == "*" {
			if last {
				return true
			}
			continue
		}
		if p != req[i] {
			return false
		}
	}
	return len(pat) == len(req)
}

// MatchAny returns true if any of the patterns match the required action.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}
