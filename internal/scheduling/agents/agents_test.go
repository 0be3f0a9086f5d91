package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	a := New("Alex", 2)
	require.NoError(t, r.Register(a))

	dup := &Agent{ID: a.ID, Name: "Blake", WorkloadLimit: 1, Availability: Available}
	assert.ErrorIs(t, r.Register(dup), ErrDuplicateAgent)
}

func TestRegisterRejectsNonPositiveLimit(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(New("Alex", 0)), ErrInvalidWorkloadLimit)
	assert.ErrorIs(t, r.Register(New("Blake", -1)), ErrInvalidWorkloadLimit)
}

func TestSetAvailabilityUnknownAgent(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.SetAvailability("nope", Offline), ErrUnknownAgent)
}

func TestListEligibleKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	first := New("Alex", 1)
	second := New("Blake", 2)
	third := New("Casey", 1)
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))
	require.NoError(t, r.Register(third))

	require.NoError(t, r.SetAvailability(second.ID, Offline))
	got := r.ListEligible()
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)

	// A saturated agent is not eligible even while Available.
	require.NoError(t, r.CommitAssignment(first.ID))
	got = r.ListEligible()
	require.Len(t, got, 1)
	assert.Equal(t, third.ID, got[0].ID)
}

func TestCommitAssignmentEnforcesCapacity(t *testing.T) {
	r := NewRegistry()
	a := New("Alex", 2)
	require.NoError(t, r.Register(a))

	require.NoError(t, r.CommitAssignment(a.ID))
	assert.Equal(t, Available, a.Availability)
	require.NoError(t, r.CommitAssignment(a.ID))
	assert.Equal(t, Busy, a.Availability)
	assert.Equal(t, 2, a.CurrentWorkload)
	assert.Equal(t, 2, a.ServedCount)

	// Full agent refuses further work; workload never exceeds the limit.
	assert.ErrorIs(t, r.CommitAssignment(a.ID), ErrAgentUnavailable)
	assert.Equal(t, 2, a.CurrentWorkload)
}

func TestCommitAssignmentOfflineAgent(t *testing.T) {
	r := NewRegistry()
	a := New("Alex", 2)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.SetAvailability(a.ID, Offline))

	assert.ErrorIs(t, r.CommitAssignment(a.ID), ErrAgentUnavailable)
	assert.Zero(t, a.CurrentWorkload)
}

func TestCommitCompletionFreesSlotAndAccruesBusyTime(t *testing.T) {
	r := NewRegistry()
	a := New("Alex", 1)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.CommitAssignment(a.ID))
	assert.Equal(t, Busy, a.Availability)

	require.NoError(t, r.CommitCompletion(a.ID, 10*time.Second))
	assert.Equal(t, Available, a.Availability)
	assert.Zero(t, a.CurrentWorkload)
	assert.Equal(t, 10*time.Second, a.BusyTime)
}

func TestSetAvailabilityBackWhileFull(t *testing.T) {
	r := NewRegistry()
	a := New("Alex", 1)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.CommitAssignment(a.ID))
	require.NoError(t, r.SetAvailability(a.ID, Offline))

	// Returning to service while at capacity shows up as Busy.
	require.NoError(t, r.SetAvailability(a.ID, Available))
	assert.Equal(t, Busy, a.Availability)
	assert.Empty(t, r.ListEligible())
}

func TestUtilization(t *testing.T) {
	a := New("Alex", 1)
	a.BusyTime = 30 * time.Second

	assert.InDelta(t, 50.0, a.Utilization(time.Minute), 1e-9)
	assert.Zero(t, a.Utilization(0))
	// Clamped even when accrued busy time overshoots wall time.
	assert.InDelta(t, 100.0, a.Utilization(10*time.Second), 1e-9)
}
