package discovery

import (
	"fmt"
	"sync"
	"time"
)

// Phase enumerates the pipeline states. Transitions only move forward; failed
// is reachable from any state and, like complete, is terminal.
type Phase string

const (
	PhaseSearching   Phase = "searching"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseFetching    Phase = "fetching"
	PhaseSummarizing Phase = "summarizing"
	PhaseComplete    Phase = "complete"
	PhaseFailed      Phase = "failed"
)

// ProgressEvent is one best-effort status update pushed during a discovery
// run. Events are transient and never persisted.
type ProgressEvent struct {
	SessionID  string         `json:"sessionId"`
	Step       string         `json:"step"`
	Phase      Phase          `json:"phase"`
	Timestamp  time.Time      `json:"timestamp"`
	Progress   float64        `json:"progress"`
	ItemNumber int            `json:"itemNumber,omitempty"`
	TotalItems int            `json:"totalItems,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Publisher pushes progress events to a per-user channel. Delivery is
// best-effort by contract: no buffering for absent subscribers, no retries.
type Publisher interface {
	Emit(userID string, event ProgressEvent)
}

// Hub is an in-process [Publisher] with per-user subscriber channels.
// Events for users with no subscriber are dropped, as are events a slow
// subscriber cannot accept.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan ProgressEvent
	next int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan ProgressEvent)}
}

// Subscribe registers a listener for userID's events. The returned cancel
// function removes the subscription and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ProgressEvent, 50)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan ProgressEvent)
	}
	id := h.next
	h.next++
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[userID][id]; ok {
			delete(h.subs[userID], id)
			close(sub)
		}
	}

	return ch, cancel
}

// Emit sends event to every subscriber of userID without blocking.
func (h *Hub) Emit(userID string, event ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- event:
		default:
			// Subscriber is full; this update is dropped.
		}
	}
}

// emit forwards an event through the engine's publisher, tolerating nil.
func (e *Engine) emit(userID string, event ProgressEvent) {
	if e.publisher == nil {
		return
	}
	e.publisher.Emit(userID, event)
}

// Percentage bands per phase. These are a coarse heuristic for display, not a
// precise measure of remaining work.
const (
	searchingStart   = 0.0
	analyzingStart   = 10.0
	fetchingStart    = 30.0
	summarizingStart = 60.0
	summarizingEnd   = 95.0
)

func phaseEvent(sessionID string, phase Phase, progress float64, step string) ProgressEvent {
	return ProgressEvent{
		SessionID: sessionID,
		Step:      step,
		Phase:     phase,
		Timestamp: time.Now(),
		Progress:  progress,
	}
}

func searchPageEvent(sessionID string, page, totalPages, found int) ProgressEvent {
	ev := phaseEvent(sessionID, PhaseSearching,
		searchingStart+(analyzingStart-searchingStart)*float64(page)/float64(totalPages),
		fmt.Sprintf("Searching catalog (page %d/%d, %d found)...", page, totalPages, found))
	ev.ItemNumber = page
	ev.TotalItems = totalPages
	return ev
}

func analyzingEvent(sessionID string, candidates int) ProgressEvent {
	return phaseEvent(sessionID, PhaseAnalyzing, analyzingStart,
		fmt.Sprintf("Analyzing %d candidates...", candidates))
}

func itemEvent(sessionID string, phase Phase, item, total int, step string) ProgressEvent {
	start, end := fetchingStart, summarizingStart
	if phase == PhaseSummarizing {
		start, end = summarizingStart, summarizingEnd
	}
	ev := phaseEvent(sessionID, phase, start+(end-start)*float64(item)/float64(total), step)
	ev.ItemNumber = item
	ev.TotalItems = total
	return ev
}

func completeEvent(sessionID string, count int) ProgressEvent {
	return phaseEvent(sessionID, PhaseComplete, 100,
		fmt.Sprintf("Discovery complete: %d playlists ranked", count))
}

func failedEvent(sessionID string, phase Phase, err error) ProgressEvent {
	ev := phaseEvent(sessionID, PhaseFailed, 0, fmt.Sprintf("Discovery failed during %s", phase))
	ev.Metadata = map[string]any{"error": err.Error()}
	return ev
}
