package vfs

import "strings"

const Separator = "/"

// ResolvePath resolves target against base. Absolute targets ignore base,
// ".." pops a segment when one exists and "." is skipped. The result always
// starts at the root.
func ResolvePath(base, target string) string {
	var segments []string
	if !strings.HasPrefix(target, Separator) {
		segments = append(segments, Split(base)...)
	}

	for _, part := range strings.Split(target, Separator) {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}

	return Separator + strings.Join(segments, Separator)
}

// Split returns the normalised segments of an absolute path.
func Split(path string) []string {
	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, part)
		}
	}
	return segments
}

func Join(dir, name string) string {
	if dir == Separator || dir == "" {
		return Separator + name
	}
	return dir + Separator + name
}

// Base returns the last segment of a path, or the separator for the root.
func Base(path string) string {
	segments := Split(path)
	if len(segments) == 0 {
		return Separator
	}
	return segments[len(segments)-1]
}
