package tinyhttp

import (
	"sort"
	"strings"
)

// transferEncoding is the body framing scheme put on the wire. Only the
// encodings listed here are supported; anything else requested by a client
// is treated as absent.
type transferEncoding int

const (
	transferEncodingIdentity transferEncoding = iota
	transferEncodingChunked
)

// chunkedThreshold is the identity body size starting from which the
// serializer switches to chunked framing on its own.
const chunkedThreshold = 32768

func parseTransferEncoding(s string) (transferEncoding, bool) {
	if strings.EqualFold(s, strIdentity) {
		return transferEncodingIdentity, true
	}
	if strings.EqualFold(s, strChunked) {
		return transferEncodingChunked, true
	}
	return 0, false
}

// acceptedEncoding is a single entry of a quality-valued header list
// such as TE.
type acceptedEncoding struct {
	value  string
	weight float64
}

// parseAcceptedEncodings parses a comma-separated token[;q=weight] list
// and returns the entries sorted by descending weight. The default weight
// is 1.0. Entries whose quality value cannot be parsed are dropped.
func parseAcceptedEncodings(value string) []acceptedEncoding {
	var parsed []acceptedEncoding
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		token := part
		weight := 1.0
		if i := strings.IndexByte(part, ';'); i >= 0 {
			token = strings.TrimSpace(part[:i])
			param := strings.TrimSpace(part[i+1:])
			if !strings.HasPrefix(param, "q=") {
				continue
			}
			q, err := ParseUfloat([]byte(param[2:]))
			if err != nil {
				continue
			}
			weight = q
		}
		if len(token) == 0 {
			continue
		}
		parsed = append(parsed, acceptedEncoding{value: token, weight: weight})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].weight > parsed[j].weight
	})
	return parsed
}

// chooseTransferEncoding picks the framing scheme for a response body.
//
// The checks form a priority chain, in this order: the request's protocol
// version, the client's TE preference, the trailer requirement, the size
// threshold. contentLength < 0 means the body length is unknown.
func chooseTransferEncoding(requestHeaders []Header, proto Protocol, contentLength int, hasTrailers bool) transferEncoding {
	// HTTP/1.0 and below has no chunked coding.
	if !proto.AtLeast(1, 1) {
		return transferEncodingIdentity
	}

	if value, ok := peekHeader(requestHeaders, strTE); ok {
		for _, ae := range parseAcceptedEncodings(value) {
			// q=0 means the client explicitly rejects this encoding
			if ae.weight <= 0 {
				continue
			}
			if te, ok := parseTransferEncoding(ae.value); ok {
				return te
			}
		}
	}

	// trailing headers can only be delivered with chunked framing
	if hasTrailers {
		return transferEncodingChunked
	}

	if contentLength < 0 || contentLength >= chunkedThreshold {
		return transferEncodingChunked
	}

	return transferEncodingIdentity
}
