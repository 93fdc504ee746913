package thumb

import (
	"container/list"
	"image"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/tagbrowse/internal/debug"
	"github.com/justyntemme/tagbrowse/internal/fs"
)

// Loader generates thumbnails on a shared pool. Concurrent requests for the
// same path share one generation, and finished thumbnails are kept in an
// LRU so that entries re-created for the same file do not decode it again.
type Loader struct {
	pool     *fs.Pool
	maxDim   int
	generate func(path string, maxDim int) (image.Image, error)
	flight   singleflight.Group

	mu      sync.Mutex
	cache   map[string]*list.Element // path -> element holding *cacheEntry
	lru     *list.List               // front = most recent
	maxSize int
}

type cacheEntry struct {
	path string
	img  image.Image
}

// NewLoader creates a loader. maxEntries bounds the LRU; maxDim is the
// longest side of generated thumbnails.
func NewLoader(pool *fs.Pool, maxEntries, maxDim int) *Loader {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Loader{
		pool:     pool,
		maxDim:   maxDim,
		generate: Generate,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		maxSize:  maxEntries,
	}
}

// Get returns a cached thumbnail.
func (l *Loader) Get(path string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.cache[path]
	if !ok {
		return nil, false
	}
	l.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// Load returns the thumbnail for path, generating it if needed. It blocks;
// interactive callers go through a Handle instead.
func (l *Loader) Load(path string) (image.Image, error) {
	if img, ok := l.Get(path); ok {
		return img, nil
	}
	v, err, shared := l.flight.Do(path, func() (any, error) {
		img, err := l.generate(path, l.maxDim)
		if err != nil {
			return nil, err
		}
		l.put(path, img)
		return img, nil
	})
	if shared {
		debug.Log(debug.THUMB, "Load: %s shared an in-flight generation", path)
	}
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Invalidate drops the cached thumbnail for path.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.cache[path]; ok {
		l.lru.Remove(el)
		delete(l.cache, path)
	}
}

// Clear removes all entries from the cache.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*list.Element)
	l.lru = list.New()
	debug.Log(debug.THUMB, "Loader: cleared")
}

// Size returns the current number of cached thumbnails.
func (l *Loader) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// put adds a thumbnail to the cache, evicting old entries if necessary.
func (l *Loader) put(path string, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.cache[path]; ok {
		el.Value.(*cacheEntry).img = img
		l.lru.MoveToFront(el)
		return
	}

	for l.lru.Len() >= l.maxSize {
		oldest := l.lru.Back()
		if oldest == nil {
			break
		}
		old := oldest.Value.(*cacheEntry)
		delete(l.cache, old.path)
		l.lru.Remove(oldest)
		debug.Log(debug.THUMB, "Loader: evicted %s", old.path)
	}

	l.cache[path] = l.lru.PushFront(&cacheEntry{path: path, img: img})
}
