// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"sync"
)

// FakeSource is an in-memory SourceOfRecord for collector tests. Any
// error set on a field is returned by the corresponding query.
type FakeSource struct {
	mu sync.Mutex

	LeadCounts map[string]int64
	LeadErr    error

	TransactionSums map[string]float64
	TransactionErr  error

	Rate    float64
	RateErr error

	Calls int
}

// NewFakeSource returns a source pre-filled with a small CRM snapshot.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		LeadCounts: map[string]int64{
			"new":       12,
			"in_work":   7,
			"converted": 3,
		},
		TransactionSums: map[string]float64{
			"payment": 145000,
			"refund":  -4500,
		},
		Rate: 13.6,
	}
}

func (f *FakeSource) LeadCountsByStatus(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.LeadErr != nil {
		return nil, f.LeadErr
	}
	out := make(map[string]int64, len(f.LeadCounts))
	for k, v := range f.LeadCounts {
		out[k] = v
	}
	return out, nil
}

func (f *FakeSource) TransactionSumsByType(ctx context.Context) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.TransactionErr != nil {
		return nil, f.TransactionErr
	}
	out := make(map[string]float64, len(f.TransactionSums))
	for k, v := range f.TransactionSums {
		out[k] = v
	}
	return out, nil
}

func (f *FakeSource) ConversionRate(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.RateErr != nil {
		return 0, f.RateErr
	}
	return f.Rate, nil
}

// SetLeadErr makes LeadCountsByStatus fail.
func (f *FakeSource) SetLeadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LeadErr = err
}
