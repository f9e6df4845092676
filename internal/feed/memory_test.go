package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/api/models"
)

func TestMemoryFeed_JobsRoundTrip(t *testing.T) {
	f := NewMemoryFeed()

	var got []JobsEvent
	unsub, err := f.SubscribeJobs(func(e JobsEvent) { got = append(got, e) }, nil)
	require.NoError(t, err)
	defer unsub()

	event := JobsEvent{
		Tenant:     "default",
		Jobs:       []models.Job{{ID: 1, Title: "Fence repair"}},
		ServerTime: time.Now(),
	}
	require.NoError(t, f.PublishJobs(event))

	require.Len(t, got, 1)
	assert.Equal(t, event.Jobs, got[0].Jobs)
}

func TestMemoryFeed_AssignmentsScopedByJob(t *testing.T) {
	f := NewMemoryFeed()

	var job1Events, job2Events int
	unsub1, err := f.SubscribeAssignments(1, func(AssignmentsEvent) { job1Events++ }, nil)
	require.NoError(t, err)
	defer unsub1()
	unsub2, err := f.SubscribeAssignments(2, func(AssignmentsEvent) { job2Events++ }, nil)
	require.NoError(t, err)
	defer unsub2()

	require.NoError(t, f.PublishAssignments(AssignmentsEvent{JobID: 1}))
	require.NoError(t, f.PublishAssignments(AssignmentsEvent{JobID: 1}))
	require.NoError(t, f.PublishAssignments(AssignmentsEvent{JobID: 2}))

	assert.Equal(t, 2, job1Events)
	assert.Equal(t, 1, job2Events)
}

func TestMemoryFeed_WildcardSeesEveryJob(t *testing.T) {
	f := NewMemoryFeed()

	var seen []uint
	unsub, err := f.SubscribeAssignments(AllJobs, func(e AssignmentsEvent) { seen = append(seen, e.JobID) }, nil)
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, f.PublishAssignments(AssignmentsEvent{JobID: 1}))
	require.NoError(t, f.PublishAssignments(AssignmentsEvent{JobID: 7}))

	assert.Equal(t, []uint{1, 7}, seen)
}

func TestMemoryFeed_UnsubscribeIdempotent(t *testing.T) {
	f := NewMemoryFeed()

	events := 0
	unsub, err := f.SubscribeJobs(func(JobsEvent) { events++ }, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.SubscriberCount())

	unsub()
	unsub()
	assert.Equal(t, 0, f.SubscriberCount())

	require.NoError(t, f.PublishJobs(JobsEvent{}))
	assert.Equal(t, 0, events)
}

func TestMemoryFeed_InjectError(t *testing.T) {
	f := NewMemoryFeed()

	var jobErr, assignmentErr error
	unsub1, err := f.SubscribeJobs(func(JobsEvent) {}, func(e error) { jobErr = e })
	require.NoError(t, err)
	defer unsub1()
	unsub2, err := f.SubscribeAssignments(1, func(AssignmentsEvent) {}, func(e error) { assignmentErr = e })
	require.NoError(t, err)
	defer unsub2()

	boom := errors.New("connection dropped")
	f.InjectError(boom)

	assert.Equal(t, boom, jobErr)
	assert.Equal(t, boom, assignmentErr)
}

func TestParseAssignmentsSubject(t *testing.T) {
	id, err := ParseAssignmentsSubject("tenant.acme.job.42.assignments")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseAssignmentsSubject("tenant.acme.jobs")
	assert.Error(t, err)

	_, err = ParseAssignmentsSubject("tenant.acme.job.nope.assignments")
	assert.Error(t, err)
}
