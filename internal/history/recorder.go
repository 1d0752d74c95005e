// Package history records parsed constructs and diagnostics of a session.
package history

import (
	"context"
	"sync"

	kerror "github.com/msto63/kaleido/foundation/core/error"
	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido"
	"github.com/msto63/kaleido/foundation/kaleido/ast"

	"github.com/msto63/kaleido/internal/history/store"
)

// Recorder is a kaleido.Handler that writes every construct and error to a
// store before passing it on to the next handler
type Recorder struct {
	store   store.Store
	session string
	next    kaleido.Handler
	logger  *klog.Logger

	mu       sync.Mutex
	recorded int
	failed   int
}

// NewRecorder creates a recorder for one session. next may be nil.
func NewRecorder(s store.Store, session string, next kaleido.Handler, logger *klog.Logger) *Recorder {
	if logger == nil {
		logger = klog.GetDefault()
	}
	return &Recorder{
		store:   s,
		session: session,
		next:    next,
		logger:  logger.WithField("component", "history"),
	}
}

// OnConstruct records result and forwards it
func (r *Recorder) OnConstruct(result kaleido.Result) {
	r.record(EntryFromResult(result, r.session))
	if r.next != nil {
		r.next.OnConstruct(result)
	}
}

// OnError records err and forwards it
func (r *Recorder) OnError(err error) {
	r.record(EntryFromError(err, r.session))
	if r.next != nil {
		r.next.OnError(err)
	}
}

// Counts returns how many entries were stored and how many failed
func (r *Recorder) Counts() (recorded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded, r.failed
}

func (r *Recorder) record(entry *store.Entry) {
	err := r.store.Record(context.Background(), entry)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed++
		r.logger.WarnWithErr("Failed to record history entry", err, klog.Fields{"kind": string(entry.Kind)})
		return
	}
	r.recorded++
}

// EntryFromResult converts a parsed construct into a history entry
func EntryFromResult(result kaleido.Result, session string) *store.Entry {
	entry := &store.Entry{
		Session: session,
		SExpr:   ast.SExpr(result.Node()),
		Line:    result.Pos.Line,
		Column:  result.Pos.Column,
	}

	switch result.Kind {
	case kaleido.KindDefinition:
		entry.Kind = store.KindDefinition
	case kaleido.KindExtern:
		entry.Kind = store.KindExtern
	default:
		entry.Kind = store.KindExpression
	}

	if result.Prototype != nil && !result.Prototype.IsAnonymous() {
		entry.Name = result.Prototype.Name
		entry.Params = append([]string(nil), result.Prototype.Params...)
	}
	return entry
}

// EntryFromError converts a diagnostic into a history entry
func EntryFromError(err error, session string) *store.Entry {
	entry := &store.Entry{
		Session: session,
		Kind:    store.KindError,
		Error:   err.Error(),
	}
	if e, ok := err.(*kerror.Error); ok {
		entry.Error = e.Message()
		if pos, has := e.Position(); has {
			entry.Line = pos.Line
			entry.Column = pos.Column
		}
	}
	return entry
}

// Batch collects entries in memory and writes them with a single
// RecordBatch call. It suits one-shot runs such as parsing a file.
type Batch struct {
	session string
	next    kaleido.Handler

	mu      sync.Mutex
	entries []*store.Entry
}

// NewBatch creates a batch for one session. next may be nil.
func NewBatch(session string, next kaleido.Handler) *Batch {
	return &Batch{session: session, next: next}
}

// OnConstruct queues result and forwards it
func (b *Batch) OnConstruct(result kaleido.Result) {
	b.add(EntryFromResult(result, b.session))
	if b.next != nil {
		b.next.OnConstruct(result)
	}
}

// OnError queues err and forwards it
func (b *Batch) OnError(err error) {
	b.add(EntryFromError(err, b.session))
	if b.next != nil {
		b.next.OnError(err)
	}
}

// Len returns the number of queued entries
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Flush writes all queued entries to s and empties the batch
func (b *Batch) Flush(ctx context.Context, s store.Store) (int, error) {
	b.mu.Lock()
	entries := b.entries
	b.entries = nil
	b.mu.Unlock()

	if len(entries) == 0 {
		return 0, nil
	}
	return s.RecordBatch(ctx, entries)
}

func (b *Batch) add(entry *store.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
}
