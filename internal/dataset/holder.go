package dataset

import (
	"sync"

	"go.uber.org/zap"
)

// Holder publishes the current dataset and swaps it atomically on reload.
// Readers keep using the generation they fetched. Swaps are serialized, and the
// hooks of one swap finish before the next swap starts, so hooks always see
// generations in the order they were published.
type Holder struct {
	dir    string
	files  Files
	logger *zap.Logger

	swapMu sync.Mutex

	mu      sync.RWMutex
	current *Dataset
	onSwap  []func(*Dataset)
}

// NewHolder creates an empty holder for dir. Call Reload to load the first generation.
func NewHolder(dir string, files Files, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{dir: dir, files: files, logger: logger}
}

// Dir returns the data directory.
func (h *Holder) Dir() string {
	return h.dir
}

// Files returns the configured artifact names.
func (h *Holder) Files() Files {
	return h.files
}

// Current returns the live dataset, or nil before the first successful load.
func (h *Holder) Current() *Dataset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnSwap registers fn to run after every successful swap. Hooks must not call Set
// or Reload.
func (h *Holder) OnSwap(fn func(*Dataset)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSwap = append(h.onSwap, fn)
}

// Subscribe registers fn like OnSwap and immediately runs it with the current
// dataset, which may be nil. No swap can slip in between the two.
func (h *Holder) Subscribe(fn func(*Dataset)) {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()
	h.mu.Lock()
	h.onSwap = append(h.onSwap, fn)
	cur := h.current
	h.mu.Unlock()
	fn(cur)
}

// Reload loads the directory again. On failure the previous generation stays live.
// Concurrent reloads run one at a time, so the last one to start wins.
func (h *Holder) Reload() error {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()
	ds, err := Load(h.dir, h.files, h.logger)
	if err != nil {
		h.logger.Error("dataset reload failed, keeping previous", zap.String("dir", h.dir), zap.Error(err))
		return err
	}
	h.swap(ds)
	return nil
}

// Set replaces the live dataset.
func (h *Holder) Set(ds *Dataset) {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()
	h.swap(ds)
}

func (h *Holder) swap(ds *Dataset) {
	h.mu.Lock()
	h.current = ds
	hooks := make([]func(*Dataset), len(h.onSwap))
	copy(hooks, h.onSwap)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn(ds)
	}
}
