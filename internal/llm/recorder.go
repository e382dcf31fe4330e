package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ppiankov/aontas/internal/util"
)

// recordingTransport remembers the status and headers of the last response.
// SDK clients hide both behind their own error types.
type recordingTransport struct {
	base http.RoundTripper

	mu     sync.Mutex
	status int
	header http.Header
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.mu.Lock()
		t.status = resp.StatusCode
		t.header = resp.Header.Clone()
		t.mu.Unlock()
	}
	return resp, err
}

// last returns the status and headers of the most recent response, or 0
// when no response arrived
func (t *recordingTransport) last() (int, http.Header) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.header
}

// succeeded reports whether the last response had a 2xx status
func (t *recordingTransport) succeeded() bool {
	status, _ := t.last()
	return status >= 200 && status < 300
}

// malformedBody reports whether err is a 2xx body that failed to decode
// while the attempt was still live. A body cut short by the attempt timeout
// is a transport failure.
func malformedBody(ctx context.Context, err error, rec *recordingTransport) bool {
	if !rec.succeeded() || ctx.Err() != nil {
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// newRecordingClient returns a client whose responses are recorded. Timeouts
// come from the request context.
func newRecordingClient(config Config) (*http.Client, *recordingTransport) {
	rec := &recordingTransport{base: newTransport(config)}
	return &http.Client{Transport: rec}, rec
}

func newTransport(config Config) http.RoundTripper {
	return &http.Transport{
		Proxy:               util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
}
