// Package branchutil derives deterministic remote branch names from change
// identifiers.
package branchutil

import "strings"

// BranchName returns the remote branch name for a change identifier under the
// configured prefix. The result is deterministic and injective: two distinct
// change identifiers never map to the same branch name.
//
// Branch names may only contain alphanumerics, '/', '-' and '_'. Identifier
// bytes outside that alphabet are hex-escaped rather than truncated, since
// truncation risks collisions across a large change set. '_' doubles as the
// escape character, so a literal underscore is emitted as "__"; hex digits
// never collide with '_', keeping the encoding reversible.
func BranchName(prefix, changeID string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for i := 0; i < len(changeID); i++ {
		c := changeID[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			sb.WriteByte(c)
		case c == '_':
			sb.WriteString("__")
		default:
			sb.WriteByte('_')
			sb.WriteByte(hexDigit(c >> 4))
			sb.WriteByte(hexDigit(c & 0x0f))
		}
	}
	return sb.String()
}

func hexDigit(nibble byte) byte {
	if nibble < 10 {
		return '0' + nibble
	}
	return 'a' + nibble - 10
}
