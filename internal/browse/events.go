package browse

import (
	"sync"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

// Scope marks which of the two navigable sequences an event belongs to, so
// the main-table modal and the IP drill-down modal never corrupt each other's
// state.
type Scope string

const (
	ScopeMain      Scope = "main"
	ScopeDrilldown Scope = "drilldown"
)

// Key identifies a keyboard input routed to open modals.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyEscape     Key = "Escape"
)

// KeyHandler consumes one key event.
type KeyHandler func(Key)

// Keymap is an explicit per-scope key binding registry. Each open modal holds
// exactly one binding, registered when its modal node is created and removed
// on every path back to closed. A binding left behind after close would keep
// reacting to keystrokes for a view that no longer exists.
type Keymap struct {
	mu       sync.Mutex
	bindings map[Scope]KeyHandler
}

// NewKeymap constructs an empty registry.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[Scope]KeyHandler)}
}

// Bind registers the handler for a scope, replacing any previous one.
func (k *Keymap) Bind(scope Scope, handler KeyHandler) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings[scope] = handler
}

// Unbind removes the handler for a scope.
func (k *Keymap) Unbind(scope Scope) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.bindings, scope)
}

// Bound reports whether a scope currently holds a binding.
func (k *Keymap) Bound(scope Scope) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.bindings[scope]
	return ok
}

// Dispatch delivers the key to every bound scope, mirroring document-level
// listeners: with both modals open both react, and the shared navigation
// guard keeps that from double-fetching.
func (k *Keymap) Dispatch(key Key) {
	k.mu.Lock()
	handlers := make([]KeyHandler, 0, len(k.bindings))
	for _, handler := range k.bindings {
		handlers = append(handlers, handler)
	}
	k.mu.Unlock()
	for _, handler := range handlers {
		handler(key)
	}
}

// NoticeKind classifies transient operator-facing notifications.
type NoticeKind string

const (
	// NoticeRateLimited tells the operator to slow down.
	NoticeRateLimited NoticeKind = "rate_limited"
	// NoticeError carries any other failure message verbatim.
	NoticeError NoticeKind = "error"
)

// EventSink receives render-relevant state transitions. The engine pushes
// state out through this seam instead of owning any presentation.
type EventSink interface {
	// PageReplaced fires when a new ResultPage wholesale-replaces the old.
	PageReplaced(page *auditlog.ResultPage)
	// EmptyState fires instead of PageReplaced when the page has no rows.
	EmptyState(page *auditlog.ResultPage)
	// QueryFailed fires when the canonical query fails; the previously
	// rendered page, if any, stays up.
	QueryFailed(err error, hadPage bool)
	// ModalOpened fires when a fresh modal node is created for the scope.
	ModalOpened(scope Scope, entry *auditlog.LogEntry, index, total int)
	// ModalUpdated fires when an open modal's content is replaced in place.
	ModalUpdated(scope Scope, entry *auditlog.LogEntry, index, total int)
	// ModalClosed fires on every transition back to closed.
	ModalClosed(scope Scope)
	// Notice carries a transient, dismissible notification.
	Notice(kind NoticeKind, message string)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) PageReplaced(*auditlog.ResultPage)                {}
func (NopSink) EmptyState(*auditlog.ResultPage)                  {}
func (NopSink) QueryFailed(error, bool)                          {}
func (NopSink) ModalOpened(Scope, *auditlog.LogEntry, int, int)  {}
func (NopSink) ModalUpdated(Scope, *auditlog.LogEntry, int, int) {}
func (NopSink) ModalClosed(Scope)                                {}
func (NopSink) Notice(NoticeKind, string)                        {}
