package tinyhttp

import "strings"

// Header is a single HTTP header field.
//
// Header names compare ASCII case-insensitively; values are opaque ASCII
// byte strings. A header list keeps its insertion order and may legally
// contain several entries with the same name.
type Header struct {
	Key   string
	Value string
}

// protectedHeaders are owned by the response serialization step. Adding
// them to a Response is silently ignored.
var protectedHeaders = []string{
	strAcceptRanges,
	strConnection,
	strContentRange,
	strTrailer,
	strTransferEncoding,
	strUpgrade,
}

func isProtectedHeader(key string) bool {
	for _, k := range protectedHeaders {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}

// peekHeader returns the value of the first header with the given key.
func peekHeader(headers []Header, key string) (string, bool) {
	for i := range headers {
		if strings.EqualFold(headers[i].Key, key) {
			return headers[i].Value, true
		}
	}
	return "", false
}

func hasHeader(headers []Header, key string) bool {
	_, ok := peekHeader(headers, key)
	return ok
}

func appendHeaderLine(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, strColonSpace...)
	dst = append(dst, value...)
	return append(dst, strCRLF...)
}
