package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldcrew/crew-tracker-api/internal/domain"
)

// sendQueueSize bounds how many events may wait for one subscriber. A
// subscriber that falls further behind is disconnected.
const sendQueueSize = 16

// Sender is the subset of Client the hub needs. Send may block; the hub only
// calls it from the subscriber's own writer goroutine.
type Sender interface {
	Send(payload []byte) error
	Close()
}

// LocationEvent is the message pushed to stream subscribers.
type LocationEvent struct {
	ID           string    `json:"id"`
	CrewMemberID string    `json:"crew_member_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

// subscription pairs a Sender with its outbound queue.
type subscription struct {
	sender Sender
	queue  chan []byte

	stopOnce sync.Once
	stop     chan struct{}
}

func (s *subscription) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Hub fans location samples out to subscribers keyed by crew member.
// It implements locationfeed.Publisher: Publish only enqueues and never
// waits on a subscriber's connection.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	topics map[domain.CrewMemberID]map[Sender]*subscription
	closed bool

	writers sync.WaitGroup
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{log: logger, topics: make(map[domain.CrewMemberID]map[Sender]*subscription)}
}

// Register subscribes s to samples for crewMemberID. It reports false after Close.
func (h *Hub) Register(crewMemberID domain.CrewMemberID, s Sender) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	subs, ok := h.topics[crewMemberID]
	if !ok {
		subs = make(map[Sender]*subscription)
		h.topics[crewMemberID] = subs
	}
	if _, dup := subs[s]; dup {
		return true
	}
	sub := &subscription{
		sender: s,
		queue:  make(chan []byte, sendQueueSize),
		stop:   make(chan struct{}),
	}
	subs[s] = sub
	h.writers.Add(1)
	go h.write(crewMemberID, sub)
	return true
}

// write drains sub's queue until it is halted or a send fails, then closes the sender.
func (h *Hub) write(crewMemberID domain.CrewMemberID, sub *subscription) {
	defer h.writers.Done()
	defer sub.sender.Close()
	for {
		select {
		case <-sub.stop:
			return
		case payload := <-sub.queue:
			if err := sub.sender.Send(payload); err != nil {
				h.Unregister(crewMemberID, sub.sender)
				return
			}
		}
	}
}

// Unregister removes s and stops its writer. The sender is closed by the writer.
func (h *Hub) Unregister(crewMemberID domain.CrewMemberID, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(crewMemberID, s)
}

func (h *Hub) removeLocked(crewMemberID domain.CrewMemberID, s Sender) {
	subs, ok := h.topics[crewMemberID]
	if !ok {
		return
	}
	if sub, ok := subs[s]; ok {
		sub.halt()
		delete(subs, s)
	}
	if len(subs) == 0 {
		delete(h.topics, crewMemberID)
	}
}

// Subscribers returns the number of live subscribers for crewMemberID.
func (h *Hub) Subscribers(crewMemberID domain.CrewMemberID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[crewMemberID])
}

// Publish queues s for every subscriber of its crew member. Subscribers whose
// queue is full are dropped.
func (h *Hub) Publish(s domain.LocationSample) {
	payload, err := json.Marshal(LocationEvent{
		ID:           string(s.ID),
		CrewMemberID: string(s.CrewMemberID),
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Timestamp:    s.Timestamp.UTC(),
	})
	if err != nil {
		h.log.Error("encode location event", "error", err)
		return
	}

	var lagging []Sender
	h.mu.RLock()
	for sender, sub := range h.topics[s.CrewMemberID] {
		select {
		case sub.queue <- payload:
		default:
			lagging = append(lagging, sender)
		}
	}
	h.mu.RUnlock()

	if len(lagging) == 0 {
		return
	}
	h.mu.Lock()
	for _, sender := range lagging {
		h.log.Warn("dropping slow location subscriber", "crew_member_id", s.CrewMemberID)
		h.removeLocked(s.CrewMemberID, sender)
	}
	h.mu.Unlock()
}

// Close disconnects every subscriber, rejects new registrations and waits for
// the writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	topics := h.topics
	h.topics = make(map[domain.CrewMemberID]map[Sender]*subscription)
	h.closed = true
	h.mu.Unlock()

	for _, subs := range topics {
		for _, sub := range subs {
			sub.halt()
		}
	}
	h.writers.Wait()
}
