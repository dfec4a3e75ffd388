package pkg

import "strings"

func isKnownShellSafeCharacter(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}

	switch c {
	case '_', '+', '-', '.', '/':
		return true
	}

	return false
}

// ShellEscape quotes s for a POSIX shell when it contains characters that are
// not known to be safe. Strings made only of safe characters are returned as is.
func ShellEscape(s string) string {
	needsQuoting := false

	for i := 0; i < len(s); i++ {
		if !isKnownShellSafeCharacter(s[i]) {
			needsQuoting = true
			break
		}
	}

	if !needsQuoting {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
