// Package pkg provides path and shell string helpers for ngraph.
package pkg

import "errors"

// maxSlashBits is the number of separators whose style can be recorded.
const maxSlashBits = 64

// ErrEmptyPath is returned when canonicalizing an empty path.
var ErrEmptyPath = errors.New("empty path")

type pathComponent struct {
	name      string
	backslash bool // separator following this component was '\'
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

// CanonicalizePath normalizes separators to '/', drops "." components,
// collapses "dir/.." pairs and repeated separators. The returned bits record,
// for each separator of the result (lowest bit first), whether it was
// originally a backslash. Bits are for display only and never affect identity.
func CanonicalizePath(path string) (string, uint64, error) {
	if path == "" {
		return "", 0, ErrEmptyPath
	}

	absolute := isSeparator(path[0])
	leadBackslash := path[0] == '\\'

	i := 0
	for i < len(path) && isSeparator(path[i]) {
		i++
	}

	components := make([]pathComponent, 0, 8)

	for i < len(path) {
		j := i
		for j < len(path) && !isSeparator(path[j]) {
			j++
		}

		comp := pathComponent{name: path[i:j], backslash: j < len(path) && path[j] == '\\'}

		for j < len(path) && isSeparator(path[j]) {
			j++
		}

		i = j

		switch comp.name {
		case ".":
			continue
		case "..":
			if n := len(components); n > 0 && components[n-1].name != ".." {
				components = components[:n-1]
				continue
			}

			if absolute {
				continue
			}
		}

		components = append(components, comp)
	}

	return joinComponents(components, absolute, leadBackslash)
}

func joinComponents(components []pathComponent, absolute, leadBackslash bool) (string, uint64, error) {
	var (
		buf  = make([]byte, 0, 64)
		bits uint64
		slot uint
	)

	if absolute {
		buf = append(buf, '/')
		if leadBackslash {
			bits |= 1
		}

		slot++
	}

	for idx, comp := range components {
		buf = append(buf, comp.name...)
		if idx == len(components)-1 {
			break
		}

		buf = append(buf, '/')
		if comp.backslash && slot < maxSlashBits {
			bits |= 1 << slot
		}

		slot++
	}

	if len(buf) == 0 {
		return ".", 0, nil
	}

	return string(buf), bits, nil
}

// DecanonicalizePath restores the separator style recorded in bits.
func DecanonicalizePath(path string, bits uint64) string {
	if bits == 0 {
		return path
	}

	buf := []byte(path)

	var slot uint

	for i, c := range buf {
		if c != '/' {
			continue
		}

		if slot < maxSlashBits && bits&(1<<slot) != 0 {
			buf[i] = '\\'
		}

		slot++
	}

	return string(buf)
}
