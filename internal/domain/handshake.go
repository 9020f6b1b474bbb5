package domain

// HeaderMap maps a request header name to its single value.
// The request line contributes the pseudo names "GET" (request target)
// and "HTTP" (version digits).
type HeaderMap map[string]string

// Lookup returns the value stored under name and whether it was present.
func (h HeaderMap) Lookup(name string) (string, bool) {
	v, ok := h[name]
	return v, ok
}

// HandshakeRequest holds the parameters of an accepted opening handshake.
type HandshakeRequest struct {
	SecWebSocketKey string // Client nonce
	Path            string // Escaped absolute path of the requested resource
	Query           string // Raw query including the leading '?', empty when absent
}
