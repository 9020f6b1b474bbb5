package infrastructure

import (
	"strings"

	"websocket-handshake/internal/domain"
	"websocket-handshake/pkg/protocol"
)

// ParseHeaders tokenizes a raw handshake request into a header map.
//
// The first non-empty line, when it is a GET request line, yields the
// "GET" (request target) and "HTTP" (version digits) pseudo headers.
// Other lines are kept only when they start with a known header name
// followed by a colon. Parsing never fails: malformed input simply
// produces a sparse map for the validator to reject.
func ParseHeaders(request string) domain.HeaderMap {
	headers := make(domain.HeaderMap)

	first := true
	for _, line := range strings.FieldsFunc(request, isLineBreak) {
		if first {
			first = false
			if strings.HasPrefix(line, protocol.PseudoHeaderGet) {
				parseRequestLine(headers, line)
				continue
			}
		}
		parseHeaderLine(headers, line)
	}

	return headers
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}

// parseRequestLine handles "GET /chat?x=1 HTTP/1.1".
func parseRequestLine(headers domain.HeaderMap, line string) {
	segments := strings.Split(line, " ")
	if len(segments) < 2 {
		return
	}
	headers[protocol.PseudoHeaderGet] = segments[1]

	if len(segments) > 2 {
		if _, version, ok := strings.Cut(segments[2], "/"); ok {
			headers[protocol.PseudoHeaderHTTP] = version
		}
	}
}

// parseHeaderLine stores the value of a known header. A later line
// naming the same header replaces the earlier value.
func parseHeaderLine(headers domain.HeaderMap, line string) {
	for _, name := range protocol.KnownHeaderNames {
		if len(line) > len(name) && line[len(name)] == ':' && strings.HasPrefix(line, name) {
			headers[name] = strings.TrimSpace(line[len(name)+1:])
			return
		}
	}
}
