// Package transport provides the stdio glue between a byte stream and
// the dispatch engine. It owns line framing, the message size cap, and
// the ready-made replies for bytes that never became a request.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

// DefaultMaxMessageSize caps a single newline-delimited message at
// 10 MiB, matching the parse-before-decode rejection threshold.
const DefaultMaxMessageSize = 10 * 1024 * 1024

// Stdio is a newline-delimited JSON transport over an io.Reader and
// io.Writer pair, normally stdin and stdout. It implements both
// server.RequestSource and server.ResponseSink: unparsable lines are
// answered with a parse-error reply directly from Next, so the
// dispatcher only ever sees well-formed requests.
type Stdio struct {
	reader  *bufio.Reader
	maxSize int
	logger  logging.Logger

	mu     sync.Mutex
	writer *bufio.Writer
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithMaxMessageSize overrides the message size cap.
func WithMaxMessageSize(size int) StdioOption {
	return func(t *Stdio) {
		if size > 0 {
			t.maxSize = size
		}
	}
}

// WithTransportLogger sets the transport's logger.
func WithTransportLogger(logger logging.Logger) StdioOption {
	return func(t *Stdio) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewStdio creates a transport over r and w. Nil arguments default to
// stdin and stdout; log output goes to stderr so it never interleaves
// with protocol traffic.
func NewStdio(r io.Reader, w io.Writer, opts ...StdioOption) *Stdio {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &Stdio{
		reader:  bufio.NewReader(r),
		writer:  bufio.NewWriter(w),
		maxSize: DefaultMaxMessageSize,
		logger:  logging.New(nil, nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Next reads lines until one decodes into a request. Empty lines are
// skipped; oversized lines are discarded and answered with a too-large
// reply; undecodable lines are answered with a parse-error reply. The
// loop ends with io.EOF when the input closes.
func (t *Stdio) Next(ctx context.Context) (*protocol.Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, tooLarge, err := t.readLine()
		if err != nil {
			return nil, err
		}
		if tooLarge {
			t.logger.Warn("dropping oversized message",
				logging.Int("max_bytes", t.maxSize))
			if err := t.Send(ctx, protocol.TooLargeResponse()); err != nil {
				return nil, err
			}
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil || req.Method == "" {
			t.logger.Warn("dropping unparsable message")
			if err := t.Send(ctx, protocol.ParseErrorResponse()); err != nil {
				return nil, err
			}
			continue
		}
		return &req, nil
	}
}

// readLine reads one newline-delimited message, reporting overflow
// without aborting the connection: the rest of the oversized line is
// consumed so the next message starts clean.
func (t *Stdio) readLine() (line []byte, tooLarge bool, err error) {
	for {
		chunk, err := t.reader.ReadSlice('\n')
		if !tooLarge {
			line = append(line, chunk...)
			if len(line) > t.maxSize {
				tooLarge = true
				line = nil
			}
		}
		switch {
		case err == nil:
			return line, tooLarge, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 && !tooLarge {
				return nil, false, io.EOF
			}
			return line, tooLarge, nil
		default:
			return nil, false, err
		}
	}
}

// Send writes one outbound message as a single line and flushes. It is
// safe for concurrent use.
func (t *Stdio) Send(ctx context.Context, payload json.Marshaler) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(data); err != nil {
		return err
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return err
	}
	return t.writer.Flush()
}
