package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

// ModalState is the modal lifecycle position for one sequence.
type ModalState int

const (
	StateClosed ModalState = iota
	StateOpening
	StateOpen
)

// Navigator owns one index-addressable sequence and its modal. Entries are
// freshest-first: index 0 is the newest. "Previous" in the UI means older,
// which is the higher index; "Next" means newer, the lower index. Two
// independent instances exist, one bound to the main ResultPage and one to
// the IP drill-down set, sharing the navigation guard but nothing else.
type Navigator struct {
	scope  Scope
	keymap *Keymap
	sink   EventSink
	guard  *Guard
	fetch  FetchFunc

	entries []auditlog.LogEntry
	index   int
	state   ModalState
}

func newNavigator(scope Scope, keymap *Keymap, sink EventSink, guard *Guard, fetch FetchFunc) *Navigator {
	return &Navigator{
		scope:  scope,
		keymap: keymap,
		sink:   sink,
		guard:  guard,
		fetch:  fetch,
	}
}

// Rebind replaces the sequence wholesale. An open modal is closed first: its
// entry may not exist in the new sequence, so any carried index would be
// meaningless.
func (n *Navigator) Rebind(entries []auditlog.LogEntry) {
	n.Close()
	n.entries = entries
	n.index = 0
}

// Len returns the sequence length.
func (n *Navigator) Len() int {
	return len(n.entries)
}

// State returns the modal lifecycle position.
func (n *Navigator) State() ModalState {
	return n.state
}

// Index returns the current position. Only meaningful while open.
func (n *Navigator) Index() int {
	return n.index
}

// PrevEnabled reports whether an older entry exists.
func (n *Navigator) PrevEnabled() bool {
	return n.state == StateOpen && n.index < len(n.entries)-1
}

// NextEnabled reports whether a newer entry exists.
func (n *Navigator) NextEnabled() bool {
	return n.state == StateOpen && n.index > 0
}

// Open fetches the entry at index and shows it. While a navigation fetch is
// in flight anywhere, the call is dropped with ErrBusy and no network call
// happens. On the first open of a closed modal the key binding is registered;
// re-navigation within an open modal replaces content in place so a second
// binding is never attached.
func (n *Navigator) Open(ctx context.Context, index int) error {
	if index < 0 || index >= len(n.entries) {
		return fmt.Errorf("%w: index %d outside sequence of %d", ErrValidation, index, len(n.entries))
	}
	if !n.guard.TryAcquire() {
		return ErrBusy
	}
	defer n.guard.Release()

	wasOpen := n.state == StateOpen
	previousIndex := n.index
	n.state = StateOpening

	entry, err := n.fetch(ctx, n.entries[index].ID)
	if err != nil {
		// The modal keeps its previous position; only the notice changes.
		if wasOpen {
			n.state = StateOpen
			n.index = previousIndex
		} else {
			n.state = StateClosed
		}
		n.notifyFailure(err)
		return err
	}

	n.index = index
	n.state = StateOpen
	if wasOpen {
		n.sink.ModalUpdated(n.scope, entry, n.index, len(n.entries))
		return nil
	}
	n.keymap.Bind(n.scope, n.handleKey)
	n.sink.ModalOpened(n.scope, entry, n.index, len(n.entries))
	return nil
}

// Prev steps to the older entry (higher index). Disabled edges are a no-op.
func (n *Navigator) Prev(ctx context.Context) error {
	if !n.PrevEnabled() {
		return nil
	}
	return n.Open(ctx, n.index+1)
}

// Next steps to the newer entry (lower index). Disabled edges are a no-op.
func (n *Navigator) Next(ctx context.Context) error {
	if !n.NextEnabled() {
		return nil
	}
	return n.Open(ctx, n.index-1)
}

// Close tears the modal down. Safe to call in any state; the key binding is
// removed on every path so nothing reacts to keystrokes after the view is
// gone.
func (n *Navigator) Close() {
	if n.state == StateClosed {
		return
	}
	n.state = StateClosed
	n.keymap.Unbind(n.scope)
	n.sink.ModalClosed(n.scope)
}

// handleKey serves the modal's keyboard bindings: ArrowLeft steps to the
// older entry, ArrowRight to the newer one, Escape closes. Drops from the
// guard are intentionally ignored here.
func (n *Navigator) handleKey(key Key) {
	switch key {
	case KeyArrowLeft:
		_ = n.Prev(context.Background())
	case KeyArrowRight:
		_ = n.Next(context.Background())
	case KeyEscape:
		n.Close()
	}
}

func (n *Navigator) notifyFailure(err error) {
	if errors.Is(err, ErrRateLimited) {
		n.sink.Notice(NoticeRateLimited, "too many requests, slow down")
		return
	}
	n.sink.Notice(NoticeError, err.Error())
}
