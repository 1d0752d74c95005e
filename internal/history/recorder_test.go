package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history/store"
)

func TestRecorder_RecordsAndForwards(t *testing.T) {
	mem := store.NewMemoryStore()
	next := &kaleido.Collector{}
	rec := NewRecorder(mem, "sess", next, klog.Discard())

	engine := kaleido.NewEngine(kaleido.Options{Logger: klog.Discard()})
	if _, err := engine.Run(context.Background(), strings.NewReader("def add(a b) a+b; extern cos(x); add(1, 2); (1"), rec); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(next.Results) != 3 || len(next.Errors) != 1 {
		t.Fatalf("forwarded %d results, %d errors", len(next.Results), len(next.Errors))
	}
	if recorded, failed := rec.Counts(); recorded != 4 || failed != 0 {
		t.Errorf("Counts() = %d, %d; want 4, 0", recorded, failed)
	}

	ctx := context.Background()
	defs, _ := mem.Query(ctx, store.Filter{Kind: store.KindDefinition})
	if len(defs) != 1 || defs[0].Name != "add" || len(defs[0].Params) != 2 || defs[0].SExpr != "(def (proto add a b) (+ a b))" {
		t.Errorf("unexpected definition entry: %+v", defs)
	}

	exprs, _ := mem.Query(ctx, store.Filter{Kind: store.KindExpression})
	if len(exprs) != 1 || exprs[0].Name != "" {
		t.Errorf("anonymous expressions have no name: %+v", exprs)
	}

	errs, _ := mem.Query(ctx, store.Filter{Kind: store.KindError})
	if len(errs) != 1 || errs[0].Error != "expected ')'" || errs[0].Line != 1 {
		t.Errorf("unexpected error entry: %+v", errs)
	}
	for _, e := range append(defs, errs...) {
		if e.Session != "sess" {
			t.Errorf("session = %q, want sess", e.Session)
		}
	}
}

func TestRecorder_StoreFailure(t *testing.T) {
	rec := NewRecorder(failingStore{store.NewMemoryStore()}, "sess", nil, klog.Discard())
	rec.OnError(errors.New("boom"))

	if recorded, failed := rec.Counts(); recorded != 0 || failed != 1 {
		t.Errorf("Counts() = %d, %d; want 0, 1", recorded, failed)
	}
}

func TestEntryFromError_PlainError(t *testing.T) {
	entry := EntryFromError(errors.New("disk full"), "s")
	if entry.Kind != store.KindError || entry.Error != "disk full" || entry.Line != 0 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestBatch_Flush(t *testing.T) {
	mem := store.NewMemoryStore()
	next := &kaleido.Collector{}
	batch := NewBatch("file-run", next)

	engine := kaleido.NewEngine(kaleido.Options{Logger: klog.Discard()})
	if _, err := engine.Run(context.Background(), strings.NewReader("extern sin(a); sin(1) * ; 3"), batch); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if batch.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", batch.Len())
	}
	if len(next.Results) != 2 || len(next.Errors) != 1 {
		t.Errorf("forwarded %d results, %d errors", len(next.Results), len(next.Errors))
	}

	ctx := context.Background()
	if all, _ := mem.Query(ctx, store.Filter{}); len(all) != 0 {
		t.Fatalf("entries written before Flush: %d", len(all))
	}

	n, err := batch.Flush(ctx, mem)
	if err != nil || n != 3 {
		t.Fatalf("Flush() = %d, %v; want 3, nil", n, err)
	}
	if batch.Len() != 0 {
		t.Errorf("batch not emptied, Len() = %d", batch.Len())
	}

	stats, _ := mem.Stats(ctx)
	if stats.TotalEntries != 3 || stats.ByKind[store.KindError] != 1 || stats.Sessions != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if n, err := batch.Flush(ctx, mem); n != 0 || err != nil {
		t.Errorf("second Flush() = %d, %v; want 0, nil", n, err)
	}
}

type failingStore struct{ *store.MemoryStore }

func (failingStore) Record(context.Context, *store.Entry) error {
	return errors.New("store unavailable")
}
