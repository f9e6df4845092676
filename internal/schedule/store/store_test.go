package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/api/models"
	"fieldops/internal/feed"
)

// fakeBackend plays the authoritative server: it applies writes to its own
// tables and publishes whole-collection snapshots to the feed, the way the
// job service does after a commit.
type fakeBackend struct {
	mu          sync.Mutex
	feed        *feed.MemoryFeed
	jobs        map[uint]models.Job
	order       []uint
	assignments map[uint][]models.Assignment
	nextID      uint

	failCreate error
	failUpdate error
	failDelete error
	failMove   error
	gate       chan struct{}
}

func newFakeBackend(f *feed.MemoryFeed) *fakeBackend {
	return &fakeBackend{
		feed:        f,
		jobs:        make(map[uint]models.Job),
		assignments: make(map[uint][]models.Assignment),
	}
}

func (b *fakeBackend) seedJob(job models.Job, assignments ...models.Assignment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job.ID > b.nextID {
		b.nextID = job.ID
	}
	b.jobs[job.ID] = job
	b.order = append(b.order, job.ID)
	for _, a := range assignments {
		if a.ID > b.nextID {
			b.nextID = a.ID
		}
		a.JobID = job.ID
		b.assignments[job.ID] = append(b.assignments[job.ID], a)
	}
}

func (b *fakeBackend) publishAll() {
	b.publishJobs()
	b.mu.Lock()
	ids := append([]uint(nil), b.order...)
	b.mu.Unlock()
	for _, id := range ids {
		b.publishAssignments(id)
	}
}

func (b *fakeBackend) publishJobs() {
	b.mu.Lock()
	jobs := make([]models.Job, 0, len(b.order))
	for _, id := range b.order {
		jobs = append(jobs, b.jobs[id])
	}
	b.mu.Unlock()
	_ = b.feed.PublishJobs(feed.JobsEvent{Tenant: "t1", Jobs: jobs, ServerTime: time.Now()})
}

func (b *fakeBackend) publishAssignments(jobID uint) {
	b.mu.Lock()
	list := append([]models.Assignment(nil), b.assignments[jobID]...)
	b.mu.Unlock()
	_ = b.feed.PublishAssignments(feed.AssignmentsEvent{
		Tenant:      "t1",
		JobID:       jobID,
		Assignments: list,
		ServerTime:  time.Now(),
	})
}

func (b *fakeBackend) waitGate() {
	if b.gate != nil {
		<-b.gate
	}
}

func (b *fakeBackend) CreateJob(job models.Job, assignment models.Assignment) (uint, uint, error) {
	b.waitGate()
	if b.failCreate != nil {
		return 0, 0, b.failCreate
	}
	b.mu.Lock()
	b.nextID++
	jobID := b.nextID
	b.nextID++
	assignmentID := b.nextID
	job.ID = jobID
	assignment.ID = assignmentID
	assignment.JobID = jobID
	b.jobs[jobID] = job
	b.order = append(b.order, jobID)
	b.assignments[jobID] = []models.Assignment{assignment}
	b.mu.Unlock()

	b.publishJobs()
	b.publishAssignments(jobID)
	return jobID, assignmentID, nil
}

func (b *fakeBackend) UpdateJobFields(jobID uint, fields map[string]any) error {
	b.waitGate()
	if b.failUpdate != nil {
		return b.failUpdate
	}
	b.mu.Lock()
	job := b.jobs[jobID]
	if title, ok := fields["title"].(string); ok {
		job.Title = title
	}
	if status, ok := fields["status"].(models.JobStatus); ok {
		job.Status = status
	}
	b.jobs[jobID] = job
	b.mu.Unlock()

	b.publishJobs()
	return nil
}

func (b *fakeBackend) DeleteJob(jobID uint) error {
	b.waitGate()
	if b.failDelete != nil {
		return b.failDelete
	}
	b.mu.Lock()
	delete(b.jobs, jobID)
	delete(b.assignments, jobID)
	for i, id := range b.order {
		if id == jobID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	b.publishJobs()
	return nil
}

func (b *fakeBackend) MoveAssignment(jobID, assignmentID, employeeID uint, start, end time.Time) error {
	b.waitGate()
	if b.failMove != nil {
		return b.failMove
	}
	b.mu.Lock()
	for i, a := range b.assignments[jobID] {
		if a.ID == assignmentID {
			a.EmployeeID = employeeID
			a.Start = start
			a.End = end
			a.UpdatedAt = time.Now()
			b.assignments[jobID][i] = a
		}
	}
	b.mu.Unlock()

	b.publishAssignments(jobID)
	return nil
}

func (b *fakeBackend) UpsertAssignment(jobID, employeeID uint, start, end time.Time) (uint, error) {
	b.waitGate()
	b.mu.Lock()
	for i, a := range b.assignments[jobID] {
		if a.EmployeeID == employeeID {
			a.Start = start
			a.End = end
			b.assignments[jobID][i] = a
			id := a.ID
			b.mu.Unlock()
			b.publishAssignments(jobID)
			return id, nil
		}
	}
	b.nextID++
	id := b.nextID
	b.assignments[jobID] = append(b.assignments[jobID], models.Assignment{
		ID: id, JobID: jobID, EmployeeID: employeeID, Start: start, End: end,
	})
	b.mu.Unlock()

	b.publishAssignments(jobID)
	return id, nil
}

func (b *fakeBackend) DeleteAssignment(jobID, employeeID uint) error {
	b.waitGate()
	b.mu.Lock()
	list := b.assignments[jobID]
	for i, a := range list {
		if a.EmployeeID == employeeID {
			b.assignments[jobID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	b.publishAssignments(jobID)
	return nil
}

type fakeDirectory struct {
	employees []models.Employee
}

func (d *fakeDirectory) ListEmployees() ([]models.Employee, error) {
	return d.employees, nil
}

func day(hour int) time.Time {
	return time.Date(2025, time.March, 10, hour, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) (*Store, *fakeBackend, *feed.MemoryFeed) {
	t.Helper()
	f := feed.NewMemoryFeed()
	backend := newFakeBackend(f)
	directory := &fakeDirectory{employees: []models.Employee{
		{ID: 1, Name: "Mia", HourlyRate: 90, Active: true},
		{ID: 2, Name: "Theo", HourlyRate: 85, Active: true},
	}}
	s := New(models.NewTenantContext("t1"), f, backend, directory, zerolog.Nop())
	t.Cleanup(s.Close)
	return s, backend, f
}

func TestStoreSubscribeBuildsGraph(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Title: "Fence repair", Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)

	require.NoError(t, s.Subscribe())
	backend.publishAll()

	g := s.Snapshot()
	node := g.Job(10)
	require.NotNil(t, node)
	assert.Equal(t, "Fence repair", node.Job.Title)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(100), node.Assignments[0].ID)
	require.NotNil(t, node.Assignments[0].Employee)
	assert.Equal(t, "Mia", node.Assignments[0].Employee.Name)
}

func TestStoreJobDetailRead(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Title: "Fence repair", Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)

	require.NoError(t, s.Subscribe())
	backend.publishAll()

	node := s.Job(10)
	require.NotNil(t, node)
	assert.Equal(t, "Fence repair", node.Job.Title)
	require.Len(t, node.Assignments, 1)

	assert.Nil(t, s.Job(999))
}

func TestStoreSubscribeIdempotent(t *testing.T) {
	s, backend, f := newTestStore(t)
	backend.seedJob(models.Job{ID: 10, Status: models.JobStatusActive})

	require.NoError(t, s.Subscribe())
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	// One jobs listener plus one per-job listener, no matter how many times
	// Subscribe ran.
	assert.Equal(t, 2, f.SubscriberCount())
}

func TestStoreUnsubscribeReleasesEveryFeed(t *testing.T) {
	s, backend, f := newTestStore(t)
	backend.seedJob(models.Job{ID: 10, Status: models.JobStatusActive})
	backend.seedJob(models.Job{ID: 11, Status: models.JobStatusQuote})

	require.NoError(t, s.Subscribe())
	backend.publishAll()
	require.Equal(t, 3, f.SubscriberCount())

	s.Unsubscribe()
	assert.Equal(t, 0, f.SubscriberCount())
	s.Unsubscribe()
	assert.Equal(t, 0, f.SubscriberCount())

	// A fresh cycle must not stack listeners.
	require.NoError(t, s.Subscribe())
	backend.publishAll()
	assert.Equal(t, 3, f.SubscriberCount())
	s.Unsubscribe()
	assert.Equal(t, 0, f.SubscriberCount())
}

func TestStoreMoveAssignmentOptimisticThenCommitted(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.gate = make(chan struct{})
	require.NoError(t, s.MoveAssignment(10, 100, 2, day(13), day(15)))

	// Visible before the server answers.
	node := s.Snapshot().Job(10)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(2), node.Assignments[0].EmployeeID)
	assert.Equal(t, day(13), node.Assignments[0].Start)

	close(backend.gate)
	s.Flush()

	node = s.Snapshot().Job(10)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(2), node.Assignments[0].EmployeeID)
	assert.Equal(t, day(13), node.Assignments[0].Start)
	assert.Equal(t, day(15), node.Assignments[0].End)
}

func TestStoreMoveAssignmentRollsBackOnRejection(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.failMove = errors.New("conflict")
	require.NoError(t, s.MoveAssignment(10, 100, 2, day(13), day(15)))
	s.Flush()

	node := s.Snapshot().Job(10)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(1), node.Assignments[0].EmployeeID)
	assert.Equal(t, day(9), node.Assignments[0].Start)
	assert.Equal(t, day(11), node.Assignments[0].End)

	select {
	case err := <-s.Errors():
		assert.ErrorContains(t, err, "conflict")
	default:
		t.Fatal("expected a sync error")
	}
}

func TestStoreMoveAssignmentInvalidRange(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	assert.ErrorIs(t, s.MoveAssignment(10, 100, 1, day(11), day(11)), ErrInvalidRange)
	assert.ErrorIs(t, s.MoveAssignment(10, 999, 1, day(9), day(11)), ErrNotFound)
}

func TestStoreStaleSnapshotDoesNotClobberPendingMove(t *testing.T) {
	s, backend, f := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	staleTime := time.Now()
	backend.gate = make(chan struct{})
	require.NoError(t, s.MoveAssignment(10, 100, 2, day(13), day(15)))

	// A snapshot stamped before the move was issued still carries the old
	// position. It must not undo the optimistic state.
	require.NoError(t, f.PublishAssignments(feed.AssignmentsEvent{
		Tenant: "t1",
		JobID:  10,
		Assignments: []models.Assignment{
			{ID: 100, JobID: 10, EmployeeID: 1, Start: day(9), End: day(11)},
		},
		ServerTime: staleTime,
	}))

	node := s.Snapshot().Job(10)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(2), node.Assignments[0].EmployeeID)
	assert.Equal(t, day(13), node.Assignments[0].Start)

	close(backend.gate)
	s.Flush()

	// The post-commit snapshot is newer and settles the mutation.
	node = s.Snapshot().Job(10)
	assert.Equal(t, uint(2), node.Assignments[0].EmployeeID)
}

func TestStoreAddJobReconcilesTempIdentity(t *testing.T) {
	s, backend, _ := newTestStore(t)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.gate = make(chan struct{})
	tempID, err := s.AddJob(1, day(9), day(10))
	require.NoError(t, err)
	assert.True(t, isTempID(tempID))

	g := s.Snapshot()
	require.NotNil(t, g.Job(tempID))
	require.Len(t, g.Job(tempID).Assignments, 1)

	close(backend.gate)
	s.Flush()

	g = s.Snapshot()
	assert.Nil(t, g.Job(tempID))
	require.Len(t, g.Order, 1)
	serverID := g.Order[0]
	assert.False(t, isTempID(serverID))
	node := g.Job(serverID)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, uint(1), node.Assignments[0].EmployeeID)
	assert.False(t, isTempID(node.Assignments[0].ID))
}

func TestStoreAddJobRemovedOnRejection(t *testing.T) {
	s, backend, _ := newTestStore(t)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.failCreate = errors.New("quota exceeded")
	tempID, err := s.AddJob(1, day(9), day(10))
	require.NoError(t, err)
	s.Flush()

	assert.Nil(t, s.Snapshot().Job(tempID))
	assert.Empty(t, s.Snapshot().Order)
	select {
	case err := <-s.Errors():
		assert.ErrorContains(t, err, "quota exceeded")
	default:
		t.Fatal("expected a sync error")
	}
}

func TestStoreDeleteJobTearsDownAndIgnoresLateEvents(t *testing.T) {
	s, backend, f := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()
	require.Equal(t, 2, f.SubscriberCount())

	require.NoError(t, s.DeleteJob(10))
	assert.Nil(t, s.Snapshot().Job(10))
	assert.Equal(t, 1, f.SubscriberCount())

	// A snapshot for the dead job, stamped after the delete, must not
	// resurrect its assignments.
	require.NoError(t, f.PublishAssignments(feed.AssignmentsEvent{
		Tenant:      "t1",
		JobID:       10,
		Assignments: []models.Assignment{{ID: 100, JobID: 10, EmployeeID: 1, Start: day(9), End: day(11)}},
		ServerTime:  time.Now(),
	}))
	assert.Nil(t, s.Snapshot().Job(10))

	s.Flush()
	assert.Nil(t, s.Snapshot().Job(10))
}

func TestStoreDeleteJobRollsBackOnRejection(t *testing.T) {
	s, backend, f := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Title: "Roof quote", Status: models.JobStatusQuote},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.failDelete = errors.New("referenced by invoice")
	require.NoError(t, s.DeleteJob(10))
	s.Flush()

	node := s.Snapshot().Job(10)
	require.NotNil(t, node)
	assert.Equal(t, "Roof quote", node.Job.Title)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, 2, f.SubscriberCount())
	select {
	case err := <-s.Errors():
		assert.ErrorContains(t, err, "referenced by invoice")
	default:
		t.Fatal("expected a sync error")
	}
}

func TestStoreSaveJobUpdatesFieldsOnly(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Title: "Old title", Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	require.NoError(t, s.SaveJob(models.Job{ID: 10, Title: "New title", Status: models.JobStatusCompleted}))
	s.Flush()

	node := s.Snapshot().Job(10)
	assert.Equal(t, "New title", node.Job.Title)
	assert.Equal(t, models.JobStatusCompleted, node.Job.Status)
	require.Len(t, node.Assignments, 1)
	assert.Equal(t, day(9), node.Assignments[0].Start)
}

func TestStoreSaveJobRollsBackOnRejection(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(models.Job{ID: 10, Title: "Old title", Status: models.JobStatusActive})
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	backend.failUpdate = errors.New("validation failed")
	require.NoError(t, s.SaveJob(models.Job{ID: 10, Title: "New title", Status: models.JobStatusActive}))
	s.Flush()

	assert.Equal(t, "Old title", s.Snapshot().Job(10).Job.Title)
	assert.ErrorIs(t, s.SaveJob(models.Job{ID: 999}), ErrNotFound)
}

func TestStoreTwoClientsConverge(t *testing.T) {
	f := feed.NewMemoryFeed()
	backend := newFakeBackend(f)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	directory := &fakeDirectory{employees: []models.Employee{{ID: 1, Name: "Mia"}, {ID: 2, Name: "Theo"}}}

	a := New(models.NewTenantContext("t1"), f, backend, directory, zerolog.Nop())
	defer a.Close()
	b := New(models.NewTenantContext("t1"), f, backend, directory, zerolog.Nop())
	defer b.Close()
	require.NoError(t, a.Subscribe())
	require.NoError(t, b.Subscribe())
	backend.publishAll()

	require.NoError(t, a.MoveAssignment(10, 100, 2, day(13), day(15)))
	a.Flush()
	require.NoError(t, b.MoveAssignment(10, 100, 1, day(8), day(10)))
	b.Flush()

	for _, s := range []*Store{a, b} {
		node := s.Snapshot().Job(10)
		require.Len(t, node.Assignments, 1)
		assert.Equal(t, uint(1), node.Assignments[0].EmployeeID)
		assert.Equal(t, day(8), node.Assignments[0].Start)
		assert.Equal(t, day(10), node.Assignments[0].End)
	}
}

func TestStoreUpdatesSignalCoalesces(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(models.Job{ID: 10, Status: models.JobStatusActive})
	require.NoError(t, s.Subscribe())
	backend.publishAll()
	backend.publishAll()

	select {
	case <-s.Updates():
	default:
		t.Fatal("expected an update signal")
	}
}

// blockingFeed parks SubscribeJobs until released, standing in for a slow
// transport handshake.
type blockingFeed struct {
	entered chan struct{}
	release chan struct{}

	mu       sync.Mutex
	released int
}

func newBlockingFeed() *blockingFeed {
	return &blockingFeed{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *blockingFeed) SubscribeJobs(onEvent func(feed.JobsEvent), onError func(error)) (feed.Unsubscribe, error) {
	close(f.entered)
	<-f.release
	return func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

func (f *blockingFeed) SubscribeAssignments(jobID uint, onEvent func(feed.AssignmentsEvent), onError func(error)) (feed.Unsubscribe, error) {
	return func() {}, nil
}

func (f *blockingFeed) releasedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func TestStoreUnsubscribeDuringSubscribeReleasesHandle(t *testing.T) {
	f := newBlockingFeed()
	s := New(models.NewTenantContext("t1"), f, nil, nil, zerolog.Nop())
	t.Cleanup(s.Close)

	done := make(chan error, 1)
	go func() { done <- s.Subscribe() }()

	<-f.entered
	s.Unsubscribe()
	close(f.release)
	require.NoError(t, <-done)

	// The handle obtained after Unsubscribe ran must not linger as a live
	// listener nobody can tear down.
	assert.Equal(t, 1, f.releasedCount())
	s.Unsubscribe()
	assert.Equal(t, 1, f.releasedCount())
}

func TestStoreFeedErrorKeepsGraphAndResubscribes(t *testing.T) {
	prev := resubscribeDelay
	resubscribeDelay = 10 * time.Millisecond
	t.Cleanup(func() { resubscribeDelay = prev })

	s, backend, f := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Title: "Fence repair", Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)

	require.NoError(t, s.Subscribe())
	backend.publishAll()
	require.Equal(t, 2, f.SubscriberCount())

	f.InjectError(errors.New("connection reset"))

	select {
	case err := <-s.Errors():
		assert.ErrorContains(t, err, "connection reset")
	case <-time.After(time.Second):
		t.Fatal("expected the feed error to surface")
	}

	// Stale-but-available: the last known graph keeps rendering while the
	// feed is down.
	node := s.Job(10)
	require.NotNil(t, node)
	assert.Equal(t, "Fence repair", node.Job.Title)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.subscribed && !s.retrying
	}, time.Second, 5*time.Millisecond, "store never re-established its subscription")

	// Updates flow again through the fresh subscription.
	backend.seedJob(models.Job{ID: 11, Title: "Gate install", Status: models.JobStatusQuote})
	backend.publishAll()
	require.NotNil(t, s.Job(11))
	assert.Equal(t, 3, f.SubscriberCount())
}

func TestStoreMutationsDoNotBlockBehindStalledWrites(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.seedJob(
		models.Job{ID: 10, Status: models.JobStatusActive},
		models.Assignment{ID: 100, EmployeeID: 1, Start: day(9), End: day(11)},
	)
	require.NoError(t, s.Subscribe())
	backend.publishAll()

	// Park the write worker inside its first write, then queue far more
	// writes than any fixed buffer would hold.
	backend.gate = make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 400; i++ {
			_ = s.MoveAssignment(10, 100, 1, day(9), day(11))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mutations blocked behind a stalled write")
	}

	close(backend.gate)
	s.Flush()
}
