// Copyright (c) 2020 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package rpc

import (
	"context"
)

// Fetcher bundles a batched fetch with the pure decode step that turns each
// fetched body into a typed record. Fetch and decode stay separate so one
// fetch can feed several decoders, see DecodeBoth.
type Fetcher[In any, Out any] struct {
	Fetch  func(ctx context.Context, ins []In) ([]Pair[In], error)
	Decode func(body []byte) (Out, error)
}

// Result pairs an input key with its decoded record.
type Result[In any, Out any] struct {
	Input In
	Out   Out
	Err   error
}

// Run fetches all inputs and decodes every body, keeping the pairing. A
// fetch error fails the run, except for a pair whose Err was set by a
// tolerant fetch (BatchedGetEach): that error is carried in the result and
// the pair is not decoded. Any decode error fails the run.
func (f Fetcher[In, Out]) Run(ctx context.Context, ins []In) ([]Result[In, Out], error) {
	pairs, err := f.Fetch(ctx, ins)
	if err != nil {
		return nil, err
	}
	out := make([]Result[In, Out], len(pairs))
	for i, p := range pairs {
		out[i].Input = p.Input
		if p.Err != nil {
			out[i].Err = p.Err
			continue
		}
		rec, err := f.Decode(p.Body)
		if err != nil {
			return nil, err
		}
		out[i].Out = rec
	}
	return out, nil
}

// Both carries the two records decoded from a single body.
type Both[A any, B any] struct {
	First  A
	Second B
}

// DecodeBoth derives a fetcher that feeds each fetched body to a second
// decoder as well. Used for operation lists where the same JSON yields the
// operation groups and the set of touched accounts.
func DecodeBoth[In any, A any, B any](f Fetcher[In, A], decode func(body []byte) (B, error)) Fetcher[In, Both[A, B]] {
	return Fetcher[In, Both[A, B]]{
		Fetch: f.Fetch,
		Decode: func(body []byte) (Both[A, B], error) {
			var both Both[A, B]
			first, err := f.Decode(body)
			if err != nil {
				return both, err
			}
			second, err := decode(body)
			if err != nil {
				return both, err
			}
			both.First = first
			both.Second = second
			return both, nil
		},
	}
}

// ClientFetch adapts BatchedGet into a Fetcher fetch step.
func ClientFetch[In any](c *Client, urlFn func(In) string, concurrency int) func(ctx context.Context, ins []In) ([]Pair[In], error) {
	return func(ctx context.Context, ins []In) ([]Pair[In], error) {
		return BatchedGet(ctx, c, ins, urlFn, concurrency)
	}
}
