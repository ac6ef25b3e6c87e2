package resource

import (
	"io"
	"sync"
)

// StreamProvider serves a single reader, typically standard input, as a
// nameless one-shot handle.
type StreamProvider struct {
	mu   sync.Mutex
	r    io.Reader
	used bool
}

// NewStreamProvider wraps r. The stream is handed out at most once across
// every handle the provider creates.
func NewStreamProvider(r io.Reader) *StreamProvider {
	return &StreamProvider{r: r}
}

// Open implements Provider.
func (p *StreamProvider) Open(string) (Handle, error) {
	return streamHandle{p: p}, nil
}

func (p *StreamProvider) take() (io.Reader, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used || p.r == nil {
		return nil, false
	}
	p.used = true
	return p.r, true
}

type streamHandle struct {
	p *StreamProvider
}

func (h streamHandle) OpenRead() (io.ReadCloser, error) {
	r, ok := h.p.take()
	if !ok {
		return nil, ErrUnavailable
	}
	return io.NopCloser(r), nil
}

func (streamHandle) DisplayName() (string, bool) { return "", false }
