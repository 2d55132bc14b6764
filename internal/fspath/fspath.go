// Package fspath implements Windows-style path algebra for the virtual
// filesystem: drive letters, backslash separators, case-insensitive
// comparison. All functions are pure; canonical paths always come out of
// Normalize.
package fspath

import (
	"strings"
)

const (
	// Separator is the canonical path separator.
	Separator = `\`

	// DefaultDrive is assumed when a path carries no drive letter.
	DefaultDrive = "C:"
)

// Normalize converts p to canonical form: forward slashes become
// backslashes, repeated separators collapse, "." segments drop, ".."
// segments pop the previous one (never past the drive root), and a bare
// drive letter becomes "X:\". Empty input yields the default drive root.
// Normalize is idempotent.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "/", Separator)

	drive := DefaultDrive
	rest := p
	if d, ok := splitDrive(p); ok {
		drive = strings.ToUpper(d[:1]) + ":"
		rest = p[len(d):]
	}

	var segments []string
	for _, seg := range strings.Split(rest, Separator) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		return drive + Separator
	}
	return drive + Separator + strings.Join(segments, Separator)
}

// Join concatenates non-empty segments with the separator and normalizes
// the result.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return Normalize(strings.Join(kept, Separator))
}

// Dirname returns the canonical path of the containing directory. The
// drive root is its own dirname; there is no level above it.
func Dirname(p string) string {
	p = Normalize(p)
	if IsRoot(p) {
		return p
	}
	idx := strings.LastIndex(p, Separator)
	if idx <= 2 { // immediate child of the drive root, e.g. C:\foo
		return p[:3]
	}
	return p[:idx]
}

// Basename returns the last path segment. When ext is given and the name
// ends with it, the suffix is stripped.
func Basename(p string, ext ...string) string {
	p = Normalize(p)
	if IsRoot(p) {
		return ""
	}
	name := p[strings.LastIndex(p, Separator)+1:]
	if len(ext) > 0 && ext[0] != "" && strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext[0])) {
		name = name[:len(name)-len(ext[0])]
	}
	return name
}

// Extname returns the extension of the last segment including the dot, or
// "" when there is none. A name that starts with a dot and has no other
// dot is not an extension.
func Extname(p string) string {
	name := Basename(p)
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return name[idx:]
}

// IsAbsolute reports whether p starts with a drive letter and colon.
func IsAbsolute(p string) bool {
	_, ok := splitDrive(strings.ReplaceAll(p, "/", Separator))
	return ok
}

// IsRoot reports whether p is a bare drive root in canonical form.
func IsRoot(p string) bool {
	return len(p) == 3 && p[1] == ':' && p[2] == '\\'
}

// Resolve interprets rel against base: absolute paths stand alone,
// everything else is joined onto base.
func Resolve(base, rel string) string {
	if rel == "" {
		return Normalize(base)
	}
	if IsAbsolute(rel) {
		return Normalize(rel)
	}
	return Join(base, rel)
}

// Relative returns the path from `from` to `to` using ".." segments where
// needed. Identical paths yield ".".
func Relative(from, to string) string {
	fromSegs := Segments(from)
	toSegs := Segments(to)

	common := 0
	for common < len(fromSegs) && common < len(toSegs) &&
		strings.EqualFold(fromSegs[common], toSegs[common]) {
		common++
	}

	var out []string
	for i := common; i < len(fromSegs); i++ {
		out = append(out, "..")
	}
	out = append(out, toSegs[common:]...)

	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, Separator)
}

// IsChildOf reports whether child lies strictly beneath parent.
func IsChildOf(child, parent string) bool {
	childKey := Key(child)
	parentKey := Key(parent)
	if childKey == parentKey {
		return false
	}
	if !strings.HasSuffix(parentKey, Separator) {
		parentKey += Separator
	}
	return strings.HasPrefix(childKey, parentKey)
}

// Equals compares two paths case-insensitively after normalization.
func Equals(a, b string) bool {
	return Key(a) == Key(b)
}

// Key returns the canonical case-folded form of p, used as the unique
// index key for an entry's path.
func Key(p string) string {
	return strings.ToLower(Normalize(p))
}

// Drive returns the drive prefix of p, e.g. "C:".
func Drive(p string) string {
	return Normalize(p)[:2]
}

// Segments returns the path segments of p below the drive root.
func Segments(p string) []string {
	p = Normalize(p)
	if IsRoot(p) {
		return nil
	}
	return strings.Split(p[3:], Separator)
}

// splitDrive returns the "X:" prefix of p if present.
func splitDrive(p string) (string, bool) {
	if len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]) {
		return p[:2], true
	}
	return "", false
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
