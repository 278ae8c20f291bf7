package api

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/robert-malhotra/go-wsi/wsi"
)

// SlideStore tracks the slides an API server has open, keyed by generated
// ID. Closing the store closes every slide.
type SlideStore struct {
	opts []wsi.Option

	mu     sync.Mutex
	slides map[string]*wsi.Slide
}

// NewSlideStore creates an empty store. opts are passed through to every
// wsi.Open the store performs.
func NewSlideStore(opts ...wsi.Option) *SlideStore {
	return &SlideStore{
		opts:   opts,
		slides: make(map[string]*wsi.Slide),
	}
}

// Open opens the slide at path and registers it under a fresh ID.
func (s *SlideStore) Open(path string) (string, *wsi.Slide, error) {
	slide, err := wsi.Open(path, s.opts...)
	if err != nil {
		return "", nil, err
	}

	id := "slide_" + uuid.NewString()
	s.mu.Lock()
	s.slides[id] = slide
	s.mu.Unlock()
	return id, slide, nil
}

// Get returns the slide registered under id.
func (s *SlideStore) Get(id string) (*wsi.Slide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slide, ok := s.slides[id]
	return slide, ok
}

// Remove closes and deregisters the slide under id. It reports whether the
// id was present.
func (s *SlideStore) Remove(id string) bool {
	s.mu.Lock()
	slide, ok := s.slides[id]
	delete(s.slides, id)
	s.mu.Unlock()

	if ok {
		slide.Close()
	}
	return ok
}

// IDs returns the registered slide IDs, sorted.
func (s *SlideStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.slides))
	for id := range s.slides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every open slide and empties the store.
func (s *SlideStore) Close() {
	s.mu.Lock()
	slides := s.slides
	s.slides = make(map[string]*wsi.Slide)
	s.mu.Unlock()

	for _, slide := range slides {
		slide.Close()
	}
}
