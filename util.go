package wsframe

import (
	"bytes"
	"strconv"

	"github.com/gobwas/httphead"
)

const toLower = 'a' - 'A'      // for use with OR.
const toUpper = ^byte(toLower) // for use with AND.

// btsEqualFold checks s to be case insensitive equal to p.
// Note that p MUST be only ASCII letters. That is, for example, btsEqualFold
// should be used to compare header names or header values with some constant.
func btsEqualFold(s, p []byte) bool {
	if len(s) != len(p) {
		return false
	}
	n := len(s)
	for i := 0; i < n; i++ {
		if s[i]|toLower != p[i]|toLower {
			return false
		}
	}
	return true
}

// strEqualFold is like btsEqualFold but for strings.
func strEqualFold(s, p string) bool {
	return btsEqualFold([]byte(s), []byte(p))
}

// strHasToken reports whether comma separated header value has the token.
// Tokens are compared case insensitively.
func strHasToken(header, token string) (has bool) {
	return btsHasToken([]byte(header), []byte(token))
}

func btsHasToken(header, token []byte) (has bool) {
	httphead.ScanTokens(header, func(v []byte) bool {
		has = btsEqualFold(v, token)
		return !has
	})
	return has
}

func btrim(bts []byte) []byte {
	var i, j int
	for i = 0; i < len(bts) && (bts[i] == ' ' || bts[i] == '\t'); {
		i++
	}
	for j = len(bts); j > i && (bts[j-1] == ' ' || bts[j-1] == '\t'); {
		j--
	}
	return bts[i:j]
}

func bsplit3(bts []byte, sep byte) (b1, b2, b3 []byte) {
	a := bytes.IndexByte(bts, sep)
	b := bytes.IndexByte(bts[a+1:], sep)
	if a == -1 || b == -1 {
		return bts, nil, nil
	}
	b += a + 1
	return bts[:a], bts[a+1 : b], bts[b+1:]
}

func canonicalizeHeaderKey(k []byte) {
	upper := true
	for i, c := range k {
		if upper && 'a' <= c && c <= 'z' {
			k[i] &= toUpper
		} else if !upper && 'A' <= c && c <= 'Z' {
			k[i] |= toLower
		}
		upper = c == '-'
	}
}

func asciiToInt(bts []byte) (int, error) {
	if len(bts) == 0 {
		return 0, strconv.ErrSyntax
	}
	var ret int
	for _, c := range bts {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
		ret = ret*10 + int(c-'0')
	}
	return ret, nil
}
