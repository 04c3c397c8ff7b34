// Package testutil provides test fakes and fixture series.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"econstats/internal/llm"
	"econstats/internal/models"
)

// FakeCompleter is a thread-safe llm.Completer that replays canned replies.
// Err takes precedence over Responses; once Responses run out the last one
// repeats.
type FakeCompleter struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	requests  []llm.Request
}

// NewFakeCompleter returns a completer answering with replies in order.
func NewFakeCompleter(replies ...string) *FakeCompleter {
	return &FakeCompleter{Responses: replies}
}

// Complete records req and returns the next canned reply.
func (f *FakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Responses) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	i := min(len(f.requests), len(f.Responses)) - 1
	return &llm.Response{Content: f.Responses[i], Model: "fake", RequestID: fmt.Sprintf("req-%d", len(f.requests))}, nil
}

// Calls returns how many times Complete was called.
func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest returns the most recent request.
func (f *FakeCompleter) LastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return llm.Request{}
	}
	return f.requests[len(f.requests)-1]
}

// FakeFetcher serves fixture series from memory and counts fetches.
type FakeFetcher struct {
	mu     sync.Mutex
	Series map[string]models.SeriesData
	Errs   map[string]error
	calls  map[string]int
	years  map[string]int
}

// NewFakeFetcher returns a fetcher serving the given series by id.
func NewFakeFetcher(series ...models.SeriesData) *FakeFetcher {
	f := &FakeFetcher{
		Series: make(map[string]models.SeriesData),
		Errs:   make(map[string]error),
		calls:  make(map[string]int),
		years:  make(map[string]int),
	}
	for _, s := range series {
		f.Series[s.ID] = s
	}
	return f
}

// Fetch returns the fixture for id, or an error when none is registered.
func (f *FakeFetcher) Fetch(_ context.Context, id string, years int) (models.SeriesData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[id]++
	f.years[id] = years
	if err := f.Errs[id]; err != nil {
		return models.SeriesData{}, err
	}
	s, ok := f.Series[id]
	if !ok {
		return models.SeriesData{}, fmt.Errorf("series %s not found", id)
	}
	return s, nil
}

// Calls returns how many times id was fetched.
func (f *FakeFetcher) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// Years returns the lookback of the last fetch of id.
func (f *FakeFetcher) Years(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.years[id]
}

// Monthly builds a monthly series starting January 2020 with the given values.
func Monthly(id, name, unit string, values ...float64) models.SeriesData {
	return build(id, name, unit, models.FrequencyMonthly, 1, values)
}

// Quarterly builds a quarterly series starting January 2020 with the given values.
func Quarterly(id, name, unit string, values ...float64) models.SeriesData {
	return build(id, name, unit, models.FrequencyQuarterly, 3, values)
}

// Constant builds a monthly series of n copies of v.
func Constant(id, name, unit string, n int, v float64) models.SeriesData {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return Monthly(id, name, unit, values...)
}

func build(id, name, unit string, freq models.Frequency, months int, values []float64) models.SeriesData {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, len(values))
	for i := range values {
		dates[i] = start.AddDate(0, months*i, 0)
	}
	return models.SeriesData{
		ID:     id,
		Info:   models.SeriesInfo{Name: name, Unit: unit, Frequency: freq, Source: "test"},
		Dates:  dates,
		Values: append([]float64(nil), values...),
	}
}
