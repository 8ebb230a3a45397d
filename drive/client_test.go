package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"gapikit/executor"
)

func newFakeDriveClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatal(err)
	}

	exec := executor.New(executor.Config{
		Retry: executor.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond},
		Cache: executor.CacheConfig{TTL: time.Minute, Capacity: 16},
	})
	t.Cleanup(exec.Close)

	return NewClientWithExecutor(service, exec)
}

func TestUpdateMediaResendsPayloadOnRetry(t *testing.T) {
	payload := []byte("full media payload bytes")

	var mu sync.Mutex
	var bodies [][]byte

	c := newFakeDriveClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, body)
		n := len(bodies)
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"f1","name":"report.bin"}`)
	}))

	resolved, err := RawPayload{Name: "report.bin", Data: payload}.resolve()
	if err != nil {
		t.Fatal(err)
	}

	file, err := c.updateMedia(context.Background(), "f1", resolved)
	if err != nil {
		t.Fatalf("updateMedia failed: %v", err)
	}
	if file.Id != "f1" {
		t.Errorf("Id = %q, want f1", file.Id)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) < 2 {
		t.Fatalf("server saw %d requests, want at least 2 (first attempt fails)", len(bodies))
	}
	for i, body := range bodies {
		if !bytes.Contains(body, payload) {
			t.Errorf("request %d body is missing the media payload", i+1)
		}
	}
}
