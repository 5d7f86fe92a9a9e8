package kb

import (
	"sort"
	"sync"

	"github.com/signalsfoundry/orrery-simulator/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventPosesUpdated EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type  EventType
	Tick  int64
	Poses []model.BodyPose
}

// KnowledgeBase is an in-memory, thread-safe store of the latest committed
// body poses. It satisfies core.PosePublisher, so a Scene can publish into it
// after every tick while renderers and the CLI read from it.
type KnowledgeBase struct {
	mu sync.RWMutex

	tick   int64
	poses  map[int]model.BodyPose
	byName map[string]int

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		poses:  make(map[int]model.BodyPose),
		byName: make(map[string]int),
		subs:   make(map[int]func(Event)),
	}
}

// PublishPoses replaces the stored poses with the snapshot of tick and
// notifies subscribers. Snapshots older than the stored one are ignored.
func (kb *KnowledgeBase) PublishPoses(tick int64, poses []model.BodyPose) {
	kb.mu.Lock()
	if tick < kb.tick {
		kb.mu.Unlock()
		return
	}
	kb.tick = tick
	for _, p := range poses {
		kb.poses[p.ID] = p
		kb.byName[p.Name] = p.ID
	}
	event := Event{
		Type:  EventPosesUpdated,
		Tick:  tick,
		Poses: append([]model.BodyPose(nil), poses...), // copy for safety
	}
	subs := make([]func(Event), 0, len(kb.subs))
	for _, id := range kb.subIDsLocked() {
		subs = append(subs, kb.subs[id])
	}
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
}

// Tick returns the tick of the stored snapshot.
func (kb *KnowledgeBase) Tick() int64 {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.tick
}

// GetPose returns the pose of the body with the given ID.
func (kb *KnowledgeBase) GetPose(id int) (model.BodyPose, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	p, ok := kb.poses[id]
	return p, ok
}

// FindByName returns the pose of the named body.
func (kb *KnowledgeBase) FindByName(name string) (model.BodyPose, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	id, ok := kb.byName[name]
	if !ok {
		return model.BodyPose{}, false
	}
	return kb.poses[id], true
}

// ListPoses returns a snapshot slice of all poses ordered by ID.
func (kb *KnowledgeBase) ListPoses() []model.BodyPose {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]model.BodyPose, 0, len(kb.poses))
	for _, p := range kb.poses {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function; calling it more than once is harmless.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// subIDsLocked returns subscriber IDs in registration order.
func (kb *KnowledgeBase) subIDsLocked() []int {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
