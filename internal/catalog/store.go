package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/TemirB/bazar/internal/domain"
	"go.uber.org/zap"
)

// Store is one replica's item table. Every mutation rewrites the backing file
// before returning. When the write fails the in-memory table keeps the change,
// so memory and disk diverge until the next successful save.
type Store struct {
	mu     sync.RWMutex
	items  map[string]domain.Item
	file   *File
	logger *zap.Logger
}

func Open(path string, logger *zap.Logger) (*Store, error) {
	f := NewFile(path)
	items, err := f.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("Catalog loaded",
		zap.String("path", path),
		zap.Int("items", len(items)),
	)
	return NewStore(f, items, logger), nil
}

func NewStore(f *File, items []domain.Item, logger *zap.Logger) *Store {
	s := &Store{
		items:  make(map[string]domain.Item, len(items)),
		file:   f,
		logger: logger,
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *Store) Get(id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return it, nil
}

// Search returns id/title pairs whose topic equals topic ignoring case, ordered by id.
// No match is an empty, non-nil slice.
func (s *Store) Search(topic string) []domain.SearchHit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.SearchHit, 0)
	for _, it := range s.items {
		if it.MatchesTopic(topic) {
			hits = append(hits, domain.SearchHit{ID: it.ID, Title: it.Title})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits
}

// Update applies only the fields present in patch and persists the table.
func (s *Store) Update(id string, patch domain.ItemPatch) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	if patch.Price != nil {
		it.Price = *patch.Price
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	s.items[id] = it

	if err := s.saveLocked(); err != nil {
		return it, err
	}
	return it, nil
}

// Decrement takes one unit only when quantity is positive. Check and write happen
// under the same lock.
func (s *Store) Decrement(id string) (domain.Decrement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return domain.Decrement{}, domain.ErrNotFound
	}
	d := domain.Decrement{ID: it.ID, Title: it.Title, Price: it.Price, Before: it.Quantity, After: it.Quantity}
	if it.Quantity <= 0 {
		return d, domain.ErrOutOfStock
	}
	it.Quantity--
	s.items[id] = it
	d.After = it.Quantity

	if err := s.saveLocked(); err != nil {
		return d, err
	}
	return d, nil
}

// Apply installs a replicated update. Unknown ids are reported, not created.
func (s *Store) Apply(u domain.ItemUpdate) error {
	_, err := s.Update(u.ID, u.Patch())
	return err
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) saveLocked() error {
	items := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	if err := s.file.Save(items); err != nil {
		s.logger.Error("Catalog save failed, memory and disk diverge",
			zap.String("path", s.file.Path()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	s.logger.Debug("Catalog saved", zap.Int("items", len(items)))
	return nil
}
