package infrastructure

import (
	"crypto/sha1"
	"encoding/base64"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"websocket-handshake/internal/domain"
	"websocket-handshake/pkg/protocol"
)

// HandshakeValidator validates opening handshake requests and builds the
// 101 response. It holds no per-request state and is safe for concurrent use.
type HandshakeValidator struct {
	logger *slog.Logger
}

// NewHandshakeValidator creates a new HandshakeValidator
func NewHandshakeValidator(logger *slog.Logger) *HandshakeValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandshakeValidator{logger: logger}
}

// Handshake processes one fully buffered request header block received from
// remoteAddr. On success it returns the extracted request and the response
// bytes to write back; otherwise the error is a *domain.HandshakeError and
// the caller must drop the connection.
func (h *HandshakeValidator) Handshake(remoteAddr string, buf []byte) (*domain.HandshakeRequest, []byte, error) {
	request := strings.ToValidUTF8(string(buf), "\uFFFD")
	h.logger.Debug("opening handshake request",
		slog.String("remote", remoteAddr),
		slog.String("request", request))

	req, err := h.ValidateHeaders(ParseHeaders(request), remoteAddr)
	if err != nil {
		return nil, nil, err
	}

	resp := BuildResponse(req.SecWebSocketKey)
	h.logger.Debug("opening handshake response",
		slog.String("remote", remoteAddr),
		slog.String("response", string(resp)))

	return req, resp, nil
}

// ValidateHeaders checks the parsed request against RFC 6455 section 4.2.1.
// Checks run in the order the RFC lists them and stop at the first violation.
func (h *HandshakeValidator) ValidateHeaders(headers domain.HeaderMap, remoteAddr string) (*domain.HandshakeRequest, error) {
	// An HTTP/1.1 or higher GET request, including a Request-URI.
	target, ok := headers.Lookup(protocol.PseudoHeaderGet)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingGetMethod)
	}

	// A Host header field containing the server's authority.
	host, ok := headers.Lookup(protocol.HeaderHost)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingHost)
	}

	uri, ok := resourceURI(host, target)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrInvalidResourceName)
	}

	// A Connection header field that includes the token "Upgrade".
	connection, ok := headers.Lookup(protocol.HeaderConnection)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingConnection)
	}
	if !strings.EqualFold(connection, protocol.HeaderValueUpgrade) {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrInvalidConnection).WithValue(connection)
	}

	// An Upgrade header field containing the value "websocket".
	upgrade, ok := headers.Lookup(protocol.HeaderUpgrade)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingUpgrade)
	}
	if !strings.EqualFold(upgrade, protocol.HeaderValueWebSocket) {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrInvalidUpgrade).WithValue(upgrade)
	}

	// A Sec-WebSocket-Key header field with the client nonce.
	key, ok := headers.Lookup(protocol.HeaderSecWebSocketKey)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingSecWebSocketKey)
	}
	if strings.TrimSpace(key) == "" {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrInvalidSecWebSocketKey).WithValue(key)
	}

	// A Sec-WebSocket-Version header field, with a value of 13.
	version, ok := headers.Lookup(protocol.HeaderSecWebSocketVersion)
	if !ok {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrMissingSecWebSocketVersion)
	}
	if !strings.EqualFold(version, protocol.WebSocketVersion) {
		return nil, domain.NewHandshakeError(remoteAddr, domain.ErrInvalidSecWebSocketVersion).WithValue(version)
	}

	path := uri.EscapedPath()
	if path == "" {
		path = "/"
	}

	query := ""
	if uri.RawQuery != "" || uri.ForceQuery {
		query = "?" + uri.RawQuery
	}

	return &domain.HandshakeRequest{
		SecWebSocketKey: key,
		Path:            path,
		Query:           query,
	}, nil
}

// resourceURI combines the Host header and request target into the
// ws:// URI of the requested resource.
func resourceURI(host, target string) (*url.URL, bool) {
	if host == "" || !httpguts.ValidHostHeader(host) {
		return nil, false
	}
	u, err := url.Parse(protocol.SchemeWS + "://" + host + target)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// GenerateAcceptKey generates the Sec-WebSocket-Accept value from the client's key
// According to RFC 6455: base64(SHA1(key + "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"))
func GenerateAcceptKey(key string) string {
	hash := sha1.Sum([]byte(key + protocol.WebSocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// BuildResponse formats the 101 Switching Protocols response for key.
// The field order is fixed.
func BuildResponse(key string) []byte {
	var sb strings.Builder

	sb.WriteString("HTTP/" + protocol.HTTPVersion + " 101 Switching Protocols\r\n")
	writeHeaderLine(&sb, protocol.HeaderUpgrade, protocol.HeaderValueWebSocket)
	writeHeaderLine(&sb, protocol.HeaderConnection, protocol.HeaderValueUpgrade)
	writeHeaderLine(&sb, protocol.HeaderSecWebSocketAccept, GenerateAcceptKey(key))
	sb.WriteString("\r\n")

	return []byte(sb.String())
}

func writeHeaderLine(sb *strings.Builder, name, value string) {
	sb.WriteString(name)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("\r\n")
}
