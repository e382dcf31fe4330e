package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newStallingServer answers 200, writes the start of a body, then hangs
// until the client gives up
func newStallingServer(t *testing.T, partial string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(partial))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	return server, &hits
}

func assertTransportFailure(t *testing.T, got *Completion, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected a body cut short by the timeout to fail, got completion %+v", got)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("Timeouts must not carry a status, got %d", statusErr.StatusCode)
	}
}

func TestOpenAIProvider_Complete_TimeoutAfterHeaders(t *testing.T) {
	server, _ := newStallingServer(t, `{"id":"chatcmpl-1","choices":[{"message":{"content":"{\"stu`)

	provider, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	got, err := provider.Complete(ctx, CompletionRequest{Prompt: "p"})
	assertTransportFailure(t, got, err)
}

func TestAnthropicProvider_Complete_TimeoutAfterHeaders(t *testing.T) {
	server, _ := newStallingServer(t, `{"id":"msg_1","type":"message","content":[`)

	provider, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL, Model: "claude-test"})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	got, err := provider.Complete(ctx, CompletionRequest{Prompt: "p"})
	assertTransportFailure(t, got, err)
}

func TestMalformedBody(t *testing.T) {
	ok := &recordingTransport{status: http.StatusOK}
	failed := &recordingTransport{status: http.StatusBadGateway}
	expired, cancel := context.WithCancel(context.Background())
	cancel()

	syntaxErr := func() error {
		var v map[string]any
		return json.Unmarshal([]byte(`{"choices": [`), &v)
	}()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		rec  *recordingTransport
		want bool
	}{
		{"2xx with broken json", context.Background(), syntaxErr, ok, true},
		{"2xx with attempt timed out", expired, syntaxErr, ok, false},
		{"2xx with read error", context.Background(), errors.New("connection reset"), ok, false},
		{"non-2xx", context.Background(), syntaxErr, failed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := malformedBody(tt.ctx, tt.err, tt.rec); got != tt.want {
				t.Errorf("malformedBody() = %v, want %v", got, tt.want)
			}
		})
	}
}
