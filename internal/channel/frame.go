package channel

import (
	"bytes"
	"fmt"
	"strings"
)

// STOMP frame commands used by the notification broker.
const (
	cmdConnect   = "CONNECT"
	cmdConnected = "CONNECTED"
	cmdSubscribe = "SUBSCRIBE"
	cmdMessage   = "MESSAGE"
	cmdError     = "ERROR"
)

// frame is a single STOMP frame. Header order is preserved on the wire
// because the broker treats the first occurrence as authoritative.
type frame struct {
	command string
	headers []header
	body    []byte
}

type header struct {
	key   string
	value string
}

// set appends a header.
func (f *frame) set(key, value string) {
	f.headers = append(f.headers, header{key: key, value: value})
}

// get returns the first value for key, or "".
func (f *frame) get(key string) string {
	for _, h := range f.headers {
		if h.key == key {
			return h.value
		}
	}
	return ""
}

// marshal renders the frame in wire format:
// COMMAND, header lines, blank line, body, NUL terminator.
func (f *frame) marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.command)
	b.WriteByte('\n')
	for _, h := range f.headers {
		b.WriteString(h.key)
		b.WriteByte(':')
		b.WriteString(h.value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.body)
	b.WriteByte(0)
	return b.Bytes()
}

// heartbeat is the keep-alive payload: a single end-of-line.
var heartbeat = []byte("\n")

// isHeartbeat reports whether a websocket message carries only
// keep-alive bytes rather than a frame.
func isHeartbeat(data []byte) bool {
	return len(bytes.TrimRight(data, "\r\n")) == 0
}

// parseFrame decodes a STOMP frame from a websocket message. The
// trailing NUL and any padding after it are tolerated. Header values
// from this broker never contain escape sequences, so none are decoded.
func parseFrame(data []byte) (*frame, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	head, body, found := bytes.Cut(data, []byte("\n\n"))
	if !found {
		head = data
	}

	lines := strings.Split(strings.TrimRight(string(head), "\r\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("frame has no command")
	}

	f := &frame{command: strings.TrimRight(lines[0], "\r")}
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		f.set(key, value)
	}
	f.body = body

	return f, nil
}
