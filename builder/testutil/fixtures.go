// Package testutil provides fakes and fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// FakeLines is an in-memory line source that counts calls per URL
type FakeLines struct {
	mu        sync.Mutex
	Responses map[string][]string
	Errors    map[string]error
	calls     map[string]int
	total     atomic.Int64
}

// NewFakeLines creates a line source serving responses
func NewFakeLines(responses map[string][]string) *FakeLines {
	return &FakeLines{
		Responses: responses,
		Errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// FetchLines returns the canned lines for url, or an error for unknown URLs
func (f *FakeLines) FetchLines(ctx context.Context, url string) ([]string, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[url]++
	err := f.Errors[url]
	lines, ok := f.Responses[url]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// Calls returns how often url was fetched
func (f *FakeLines) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// TotalCalls returns the number of fetches across all URLs
func (f *FakeLines) TotalCalls() int {
	return int(f.total.Load())
}

// FakeItems is an in-memory item source. Items listed in Fail return an
// error; items listed in Slow block until Delay passes or ctx ends.
type FakeItems struct {
	mu      sync.Mutex
	Payload func(url string) []byte
	Fail    map[string]bool
	Slow    map[string]bool
	Delay   time.Duration
	calls   map[string]int
	total   atomic.Int64
}

// NewFakeItems creates an item source that returns the URL as payload
func NewFakeItems() *FakeItems {
	return &FakeItems{
		Payload: func(url string) []byte { return []byte(url) },
		Fail:    make(map[string]bool),
		Slow:    make(map[string]bool),
		Delay:   time.Second,
		calls:   make(map[string]int),
	}
}

// Fetch returns the payload for url
func (f *FakeItems) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[url]++
	fail, slow := f.Fail[url], f.Slow[url]
	f.mu.Unlock()

	if slow {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, fmt.Errorf("GET %s: connection refused", url)
	}
	return f.Payload(url), nil
}

// Calls returns how often url was fetched
func (f *FakeItems) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// TotalCalls returns the number of fetches across all URLs
func (f *FakeItems) TotalCalls() int {
	return int(f.total.Load())
}

// LengthCodec decodes a payload to a one-element array holding its length.
// Empty payloads fail to decode.
type LengthCodec struct{}

func (LengthCodec) Decode(raw []byte) (models.Array, error) {
	if len(raw) == 0 {
		return models.Array{}, fmt.Errorf("empty payload")
	}
	return models.Array{Shape: []int{1}, Data: []float32{float32(len(raw))}}, nil
}

// DoublingFeaturizer doubles every element and counts its calls
type DoublingFeaturizer struct {
	Err   error
	calls atomic.Int64
}

func (f *DoublingFeaturizer) Featurize(ctx context.Context, in models.Array) (models.Array, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return models.Array{}, f.Err
	}
	out := models.Array{Shape: append([]int(nil), in.Shape...), Data: make([]float32, len(in.Data))}
	for i, v := range in.Data {
		out.Data[i] = v * 2
	}
	return out, nil
}

// Calls returns the number of Featurize calls
func (f *DoublingFeaturizer) Calls() int {
	return int(f.calls.Load())
}

// URLs returns n distinct image URLs under host
func URLs(host string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("http://%s/img/%04d.jpg", host, i)
	}
	return out
}
