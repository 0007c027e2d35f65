package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/models"
)

func TestMetricsServiceWorkflowTransitions(t *testing.T) {
	m := NewMetricsService()
	m.RecordWorkflowTransition(models.AuditResourcePayment, models.StatusApproved)
	m.RecordWorkflowTransition(models.AuditResourcePayment, models.StatusApproved)
	m.RecordWorkflowTransition(models.AuditResourceMealSkip, models.StatusPending)
	m.RecordWorkflowSubmission(models.AuditResourceMealSkip)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.WorkflowTransitions)
	assert.Equal(t, uint64(1), snap.WorkflowSubmissions)
	assert.Equal(t, uint64(2), snap.WorkflowTransitionsByStatus["approved"])
	assert.NotContains(t, snap.WorkflowTransitionsByStatus, "pending")
	assert.Zero(t, snap.WorkflowTransitionsByStatus["rejected"])

	families, err := m.registry.Gather()
	require.NoError(t, err)
	var approved, submitted float64
	var pendingSeries int
	for _, family := range families {
		if family.GetName() == "meal_api_workflow_submissions_total" {
			for _, metric := range family.GetMetric() {
				submitted += metric.GetCounter().GetValue()
			}
			continue
		}
		if family.GetName() != "meal_api_workflow_transitions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["entity"] == models.AuditResourcePayment && labels["status"] == string(models.StatusApproved) {
				approved = metric.GetCounter().GetValue()
			}
			if labels["status"] == string(models.StatusPending) {
				pendingSeries++
			}
		}
	}
	assert.Equal(t, 2.0, approved)
	assert.Equal(t, 1.0, submitted)
	assert.Zero(t, pendingSeries)
}

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/dishes", 200, 20*time.Millisecond)
	m.RecordCacheLookup("dishes", true, time.Millisecond)
	m.RecordCacheLookup("dishes", false, time.Millisecond)
	m.ObserveStoreOperation("query", 4*time.Millisecond)
	m.ObserveStoreOperation("get", 2*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.001)
	assert.Equal(t, uint64(2), snap.StoreOperations)
	assert.InDelta(t, 3.0, snap.AverageStoreOperationMs, 0.001)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordWorkflowTransition(models.AuditResourcePayment, models.StatusRejected)
		m.RecordWorkflowSubmission(models.AuditResourcePayment)
		m.ObserveStoreOperation("query", time.Millisecond)
		m.RecordCacheLookup("dishes", true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}
