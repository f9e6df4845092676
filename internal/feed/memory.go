package feed

import (
	"sync"
)

// MemoryFeed is an in-process Feed and Publisher. Events are dispatched
// synchronously on the publisher's goroutine, which keeps multi-client tests
// deterministic. It is also the feed behind a single-process deployment.
type MemoryFeed struct {
	mu             sync.Mutex
	nextID         int
	jobSubs        map[int]*memorySub[JobsEvent]
	assignmentSubs map[uint]map[int]*memorySub[AssignmentsEvent]
}

type memorySub[E any] struct {
	onEvent func(E)
	onError func(error)
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		jobSubs:        make(map[int]*memorySub[JobsEvent]),
		assignmentSubs: make(map[uint]map[int]*memorySub[AssignmentsEvent]),
	}
}

func (f *MemoryFeed) SubscribeJobs(onEvent func(JobsEvent), onError func(error)) (Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.jobSubs[id] = &memorySub[JobsEvent]{onEvent: onEvent, onError: onError}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.jobSubs, id)
		})
	}, nil
}

func (f *MemoryFeed) SubscribeAssignments(jobID uint, onEvent func(AssignmentsEvent), onError func(error)) (Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	if f.assignmentSubs[jobID] == nil {
		f.assignmentSubs[jobID] = make(map[int]*memorySub[AssignmentsEvent])
	}
	f.assignmentSubs[jobID][id] = &memorySub[AssignmentsEvent]{onEvent: onEvent, onError: onError}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.assignmentSubs[jobID], id)
			if len(f.assignmentSubs[jobID]) == 0 {
				delete(f.assignmentSubs, jobID)
			}
		})
	}, nil
}

func (f *MemoryFeed) PublishJobs(event JobsEvent) error {
	for _, sub := range f.snapshotJobSubs() {
		sub.onEvent(event)
	}
	return nil
}

func (f *MemoryFeed) PublishAssignments(event AssignmentsEvent) error {
	for _, sub := range f.snapshotAssignmentSubs(event.JobID) {
		sub.onEvent(event)
	}
	for _, sub := range f.snapshotAssignmentSubs(AllJobs) {
		sub.onEvent(event)
	}
	return nil
}

// InjectError simulates a transport failure on every open subscription.
func (f *MemoryFeed) InjectError(err error) {
	jobSubs := f.snapshotJobSubs()
	f.mu.Lock()
	var aSubs []*memorySub[AssignmentsEvent]
	for _, subs := range f.assignmentSubs {
		for _, sub := range subs {
			aSubs = append(aSubs, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range jobSubs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
	for _, sub := range aSubs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// SubscriberCount returns the number of open subscriptions, used by tests to
// assert that teardown leaks nothing.
func (f *MemoryFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.jobSubs)
	for _, subs := range f.assignmentSubs {
		n += len(subs)
	}
	return n
}

func (f *MemoryFeed) snapshotJobSubs() []*memorySub[JobsEvent] {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]*memorySub[JobsEvent], 0, len(f.jobSubs))
	for _, sub := range f.jobSubs {
		subs = append(subs, sub)
	}
	return subs
}

func (f *MemoryFeed) snapshotAssignmentSubs(jobID uint) []*memorySub[AssignmentsEvent] {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]*memorySub[AssignmentsEvent], 0, len(f.assignmentSubs[jobID]))
	for _, sub := range f.assignmentSubs[jobID] {
		subs = append(subs, sub)
	}
	return subs
}
