// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/echa/log"
)

const (
	chainPath      = "chains/main/"
	requestTimeout = 60 * time.Second
)

// Client is a thin HTTP client for the node RPC. It owns no retry policy;
// callers decide whether a failed batch is retried or the cycle fails.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	network    string
	timeout    time.Duration
}

// NodeConfig holds the pieces the base URL is composed from.
type NodeConfig struct {
	Protocol   string
	Host       string
	Port       int
	PathPrefix string
}

func (c NodeConfig) BaseURL() string {
	u := fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
	if p := strings.Trim(c.PathPrefix, "/"); p != "" {
		u += "/" + p
	}
	return u
}

func NewClient(httpClient *http.Client, baseURL, network string) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 64,
			},
		}
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("rpc: invalid base url %q: %v", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rpc: unsupported scheme %q", u.Scheme)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		network:    network,
		timeout:    requestTimeout,
	}, nil
}

func (c *Client) Network() string {
	return c.network
}

// URL resolves a chain-relative path against the base url.
func (c *Client) URL(path string) string {
	return c.baseURL.String() + chainPath + strings.TrimPrefix(path, "/")
}

// HTTPError is returned for non-2xx responses. Body keeps an excerpt for
// logs; transport failures are returned as-is.
type HTTPError struct {
	Status int
	Path   string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rpc: status %d on %s: %s", e.Status, e.Path, e.Body)
}

func IsHTTPStatus(err error, status int) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == status
	}
	return false
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	log.Debugf("GET %s", req.URL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status: resp.StatusCode,
			Path:   path,
			Body:   excerpt(body),
		}
	}
	return body, nil
}

// Pair keeps the association between a batch input and the body fetched
// for it.
type Pair[K any] struct {
	Input K
	Body  []byte
	Err   error
}

// BatchedGet issues one GET per input with at most concurrency requests in
// flight and preserves the input/body pairing. The first failure fails the
// whole batch.
func BatchedGet[K any](ctx context.Context, c *Client, inputs []K, urlFn func(K) string, concurrency int) ([]Pair[K], error) {
	out, err := batchedGet(ctx, c, inputs, urlFn, concurrency, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchedGetEach is the tolerant variant: individual failures land in the
// pair's Err field instead of failing the batch. Used where a missing
// resource is expected chain state (dead contracts, empty vote listings).
func BatchedGetEach[K any](ctx context.Context, c *Client, inputs []K, urlFn func(K) string, concurrency int) ([]Pair[K], error) {
	return batchedGet(ctx, c, inputs, urlFn, concurrency, true)
}

func batchedGet[K any](ctx context.Context, c *Client, inputs []K, urlFn func(K) string, concurrency int, tolerant bool) ([]Pair[K], error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	pool := pond.NewPool(concurrency, pond.WithQueueSize(len(inputs)))
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	out := make([]Pair[K], len(inputs))
	for i, in := range inputs {
		i, in := i, in
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			body, err := c.Get(groupCtx, urlFn(in))
			if err != nil {
				if tolerant {
					log.Warnf("batched get %s: %v", urlFn(in), err)
					out[i] = Pair[K]{Input: in, Err: err}
					return nil
				}
				return err
			}
			out[i] = Pair[K]{Input: in, Body: body}
			return nil
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, err
	}
	return out, nil
}

func excerpt(body []byte) string {
	const max = 256
	s := string(body)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
