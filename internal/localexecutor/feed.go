package localexecutor

import (
	"context"
	"iter"
	"sync"

	"github.com/vk/pipegrid/internal/plugin"
)

// feed shares one lazy Retrieve sequence between every instance reading
// from the same input node. Items are pulled on demand and kept, since an
// item may be read by several instances of a cross product.
type feed struct {
	mu    sync.Mutex
	next  func() ([][]byte, bool)
	stop  func()
	items [][][]byte
	done  bool
}

func newFeed(ctx context.Context, in plugin.Input, value string) *feed {
	next, stop := iter.Pull(in.Retrieve(ctx, value))
	return &feed{next: next, stop: stop}
}

// item returns batch k, pulling as far as needed.
func (f *feed) item(k int) ([][]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.done && len(f.items) <= k {
		batch, ok := f.next()
		if !ok {
			f.done = true
			break
		}
		f.items = append(f.items, batch)
	}
	if k < len(f.items) {
		return f.items[k], true
	}
	return nil, false
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stop()
}
