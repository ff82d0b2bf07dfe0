package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/leadrocket/observability/internal/testutil"
	"github.com/leadrocket/observability/pkg/metrics"
)

func newTestStore(t *testing.T) *metrics.Store {
	t.Helper()
	store := metrics.NewStore()
	store.MustRegister(Catalog()...)
	return store
}

func TestBusinessCollector_Collect(t *testing.T) {
	store := newTestStore(t)
	source := testutil.NewFakeSource()
	c := NewBusinessCollector(source, store, nil)

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	newLeads := store.Statistics(MetricLeadsByStatus, metrics.QueryOptions{
		Tags: metrics.Tags{"status": "new"},
	})
	if newLeads.Count != 1 || newLeads.Sum != 12 {
		t.Errorf("leads_by_status{status=new} = {count:%d sum:%v}, want {count:1 sum:12}", newLeads.Count, newLeads.Sum)
	}

	payments := store.Statistics(MetricTransactionSum, metrics.QueryOptions{
		Tags: metrics.Tags{"type": "payment"},
	})
	if payments.Count != 1 || payments.Sum != 145000 {
		t.Errorf("transactions_sum{type=payment} = {count:%d sum:%v}, want {count:1 sum:145000}", payments.Count, payments.Sum)
	}

	rate, ok := store.LatestValue(MetricConversionRate)
	if !ok || rate != 13.6 {
		t.Errorf("Conversion rate = (%v, %v), want (13.6, true)", rate, ok)
	}

	// Cycle timing is recorded on every exit path.
	if stats := store.Statistics(MetricCollectorCycle, metrics.QueryOptions{
		Tags: metrics.Tags{"job": "business"},
	}); stats.Count != 1 {
		t.Errorf("Cycle timer recorded %d samples, want 1", stats.Count)
	}
}

func TestBusinessCollector_PartialFailure(t *testing.T) {
	store := newTestStore(t)
	source := testutil.NewFakeSource()
	source.SetLeadErr(errors.New("leads table locked"))
	c := NewBusinessCollector(source, store, nil)

	err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect should report the failed aggregate")
	}

	// The other aggregates are still recorded.
	if _, ok := store.LatestValue(MetricConversionRate); !ok {
		t.Error("Conversion rate missing after partial failure")
	}
	if _, ok := store.LatestValue(MetricTransactionSum); !ok {
		t.Error("Transaction sums missing after partial failure")
	}
	if _, ok := store.LatestValue(MetricLeadsByStatus); ok {
		t.Error("Lead counts recorded despite source failure")
	}
}

func TestBusinessCollector_Job(t *testing.T) {
	c := NewBusinessCollector(testutil.NewFakeSource(), newTestStore(t), nil)

	job := c.Job(0)
	if job.Name != "business" {
		t.Errorf("Job name = %q, want business", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Job run failed: %v", err)
	}
}
