package tinyhttp

import "fmt"

// Protocol identifies an HTTP protocol version such as HTTP/1.1.
type Protocol struct {
	Major int
	Minor int
}

var (
	ProtocolHTTP10 = Protocol{Major: 1, Minor: 0}
	ProtocolHTTP11 = Protocol{Major: 1, Minor: 1}
)

// AtLeast reports whether p is at least major.minor.
func (p Protocol) AtLeast(major, minor int) bool {
	if p.Major != major {
		return p.Major > major
	}
	return p.Minor >= minor
}

// String returns the wire representation, e.g. "HTTP/1.1".
func (p Protocol) String() string {
	return string(p.appendBytes(nil))
}

func (p Protocol) appendBytes(dst []byte) []byte {
	dst = append(dst, strHTTPSlash...)
	dst = AppendUint(dst, p.Major)
	dst = append(dst, '.')
	dst = AppendUint(dst, p.Minor)
	return dst
}

func parseProtocol(s string) (Protocol, error) {
	var p Protocol
	if len(s) < 8 || s[:5] != "HTTP/" {
		return p, fmt.Errorf("unsupported protocol %q", s)
	}
	n := 5
	for n < len(s) && s[n] != '.' {
		n++
	}
	if n == len(s) {
		return p, fmt.Errorf("cannot find minor version in protocol %q", s)
	}
	major, err := ParseUint([]byte(s[5:n]))
	if err != nil {
		return p, fmt.Errorf("cannot parse major version in protocol %q: %s", s, err)
	}
	minor, err := ParseUint([]byte(s[n+1:]))
	if err != nil {
		return p, fmt.Errorf("cannot parse minor version in protocol %q: %s", s, err)
	}
	p.Major = major
	p.Minor = minor
	return p, nil
}
