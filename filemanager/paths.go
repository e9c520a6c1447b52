package filemanager

import (
	"strings"

	apperrors "github.com/kbukum/s3fm/errors"
)

// normalizePath turns caller input into a relative path with no leading or
// trailing separator. Backslashes count as separators and any ".." segment
// is rejected.
func normalizePath(input string) (string, error) {
	raw := strings.ReplaceAll(input, `\`, "/")
	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for seg := range strings.SplitSeq(raw, "/") {
		if seg == "" {
			continue
		}
		if seg == ".." {
			return "", apperrors.InvalidPath(input)
		}
		segments = append(segments, seg)
	}
	return strings.Join(segments, "/"), nil
}

// ensureTrailing appends delim to a non-empty p that lacks it.
func ensureTrailing(p, delim string) string {
	if p == "" || strings.HasSuffix(p, delim) {
		return p
	}
	return p + delim
}

// canonicalRoot trims surrounding slashes and terminates with delim.
func canonicalRoot(prefix, delim string) string {
	return ensureTrailing(strings.Trim(prefix, "/"), delim)
}

// baseName is the last segment of a path, ignoring a trailing separator.
func baseName(p, delim string) string {
	p = strings.TrimSuffix(p, delim)
	if i := strings.LastIndex(p, delim); i >= 0 {
		return p[i+len(delim):]
	}
	return p
}

func (m *Manager[F, D]) pathToKey(p string) (string, error) {
	norm, err := normalizePath(p)
	if err != nil {
		return "", err
	}
	return m.rootPrefix + norm, nil
}

func (m *Manager[F, D]) pathToFolderPrefix(p string) (string, error) {
	key, err := m.pathToKey(p)
	if err != nil {
		return "", err
	}
	return ensureTrailing(key, m.delimiter), nil
}

func (m *Manager[F, D]) keyToPath(key string) (string, error) {
	rel, ok := strings.CutPrefix(key, m.rootPrefix)
	if !ok {
		return "", apperrors.OutOfScope(key)
	}
	return rel, nil
}

// folderPath normalizes p into folder form ("a/b/"); root stays "".
func (m *Manager[F, D]) folderPath(p string) (string, error) {
	norm, err := normalizePath(p)
	if err != nil {
		return "", err
	}
	return ensureTrailing(norm, m.delimiter), nil
}

// isLockKey reports whether key belongs to the folder lock namespace.
func (m *Manager[F, D]) isLockKey(key string) bool {
	return m.lockPrefix != "" && strings.HasPrefix(key, m.lockPrefix)
}
