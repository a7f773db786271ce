package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client, err := NewClient(srv.Client(), srv.URL, "sandbox")
	assert.NoError(t, err)
	return client, srv
}

func TestClientGet(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chains/main/blocks/head", r.URL.Path)
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	body, err := client.Get(context.Background(), "blocks/head")
	assert.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, string(body))
}

func TestClientGetStatusError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.Get(context.Background(), "blocks/head")
	assert.Error(t, err)
	assert.True(t, IsHTTPStatus(err, http.StatusInternalServerError))
}

func TestBatchedGetPairing(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		fmt.Fprint(w, parts[len(parts)-1])
	}))
	defer srv.Close()

	inputs := make([]int, 20)
	for i := range inputs {
		inputs[i] = i
	}
	pairs, err := BatchedGet(context.Background(), client, inputs, func(i int) string {
		return fmt.Sprintf("items/%d", i)
	}, 4)
	assert.NoError(t, err)
	assert.Len(t, pairs, 20)
	for _, p := range pairs {
		assert.Equal(t, strconv.Itoa(p.Input), string(p.Body))
	}
}

func TestBatchedGetConcurrencyBound(t *testing.T) {
	var inflight, peak int64
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inflight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	inputs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	_, err := BatchedGet(context.Background(), client, inputs, func(i int) string {
		return fmt.Sprintf("items/%d", i)
	}, 3)
	assert.NoError(t, err)
	assert.True(t, atomic.LoadInt64(&peak) <= 3, "peak concurrency %d exceeds bound", peak)
}

func TestBatchedGetFailsBatch(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/3") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	inputs := []int{1, 2, 3, 4}
	_, err := BatchedGet(context.Background(), client, inputs, func(i int) string {
		return fmt.Sprintf("items/%d", i)
	}, 2)
	assert.Error(t, err)
}

func TestBatchedGetEachTolerates(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/3") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	inputs := []int{1, 2, 3, 4}
	pairs, err := BatchedGetEach(context.Background(), client, inputs, func(i int) string {
		return fmt.Sprintf("items/%d", i)
	}, 2)
	assert.NoError(t, err)
	assert.Len(t, pairs, 4)
	var failed int
	for _, p := range pairs {
		if p.Err != nil {
			failed++
			assert.Equal(t, 3, p.Input)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestFetcherDecodeBoth(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[7, 8, 9]`)
	}))
	defer srv.Close()

	base := Fetcher[string, int]{
		Fetch: ClientFetch(client, func(s string) string { return "items/" + s }, 2),
		Decode: func(body []byte) (int, error) {
			return len(body), nil
		},
	}
	both := DecodeBoth(base, func(body []byte) (string, error) {
		return string(body), nil
	})
	results, err := both.Run(context.Background(), []string{"a"})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, len(`[7, 8, 9]`), results[0].Out.First)
	assert.Equal(t, `[7, 8, 9]`, results[0].Out.Second)
}

func TestBlockOffsetPath(t *testing.T) {
	// offsets 0..N address N+1 distinct levels below the base block
	seen := make(map[string]struct{})
	for o := int64(0); o <= 10; o++ {
		seen[BlockOffsetPath("BLrUSnmhoWczorTY", o)] = struct{}{}
	}
	assert.Len(t, seen, 11)
	assert.Equal(t, "blocks/BLrUSnmhoWczorTY", BlockOffsetPath("BLrUSnmhoWczorTY", 0))
	assert.Equal(t, "blocks/BLrUSnmhoWczorTY~3", BlockOffsetPath("BLrUSnmhoWczorTY", 3))
}

func TestNodeConfigBaseURL(t *testing.T) {
	cfg := NodeConfig{Protocol: "https", Host: "rpc.example.com", Port: 443, PathPrefix: "tezos/mainnet"}
	assert.Equal(t, "https://rpc.example.com:443/tezos/mainnet", cfg.BaseURL())

	cfg = NodeConfig{Protocol: "http", Host: "127.0.0.1", Port: 8732}
	assert.Equal(t, "http://127.0.0.1:8732", cfg.BaseURL())

	client, err := NewClient(nil, cfg.BaseURL(), "mainnet")
	assert.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8732/chains/main/blocks/head", client.URL("blocks/head"))
}
