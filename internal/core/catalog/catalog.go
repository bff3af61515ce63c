package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
)

// Catalog is the ordered, append-only collection of documents owned by one session.
// All mutations are serialized; readers always see fully applied batches.
type Catalog struct {
	clock ports.Clock
	newID func() string

	mu    sync.RWMutex
	docs  []domain.Document
	index map[string]int
}

type Option func(*Catalog)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.newID = fn
		}
	}
}

func New(clock ports.Clock, opts ...Option) *Catalog {
	c := &Catalog{
		clock: clock,
		newID: uuid.NewString,
		index: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append adds one document per descriptor in status analyzing and returns the new documents
// in input order. The batch is validated up front so it is either fully applied or rejected.
func (c *Catalog) Append(batch []domain.FileDescriptor) ([]domain.Document, error) {
	for _, file := range batch {
		if err := file.Validate(); err != nil {
			return nil, err
		}
	}

	now := c.now()
	created := make([]domain.Document, 0, len(batch))

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(batch))
	for _, file := range batch {
		id := c.newID()
		_, inCatalog := c.index[id]
		_, inBatch := seen[id]
		if inCatalog || inBatch {
			return nil, fmt.Errorf("append document: duplicate id %s", id)
		}
		seen[id] = struct{}{}
		doc := domain.Document{
			ID:          id,
			Name:        file.Name,
			FormatClass: domain.FormatClassOf(file.Name),
			UploadedAt:  now,
			SizeBytes:   file.SizeBytes,
			Status:      domain.StatusAnalyzing,
		}
		created = append(created, doc)
	}
	for _, doc := range created {
		c.index[doc.ID] = len(c.docs)
		c.docs = append(c.docs, doc)
	}
	return created, nil
}

// UpdateStatus moves an analyzing document to classified (with a category) or error.
func (c *Catalog) UpdateStatus(id string, status domain.DocumentStatus, category domain.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", fmt.Errorf("id %s", id))
	}
	doc := &c.docs[pos]
	if !domain.CanTransition(doc.Status, status) {
		return domain.WrapError(
			domain.ErrInvalidStatusTransition,
			"update status",
			fmt.Errorf("%s: %s -> %s", id, doc.Status, status),
		)
	}
	if status == domain.StatusClassified && !category.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "update status", fmt.Errorf("unknown category %q", category))
	}
	if status == domain.StatusError {
		category = ""
	}

	doc.Status = status
	doc.Category = category
	return nil
}

// ClassifyPending transitions documents still analyzing to classified, drawing each category
// from pick. When only is non-empty, documents outside it are left untouched. The whole pass
// runs under one write lock and returns the ids it changed, in catalog order.
// When proceed is non-nil it is consulted after every category is drawn; if it reports false
// the pass is dropped and no document changes.
func (c *Catalog) ClassifyPending(pick ports.CategoryPicker, only []string, proceed func() bool) []string {
	var filter map[string]struct{}
	if len(only) > 0 {
		filter = make(map[string]struct{}, len(only))
		for _, id := range only {
			filter[id] = struct{}{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	type assignment struct {
		pos      int
		category domain.Category
	}
	var staged []assignment
	for i, doc := range c.docs {
		if doc.Status != domain.StatusAnalyzing {
			continue
		}
		if filter != nil {
			if _, ok := filter[doc.ID]; !ok {
				continue
			}
		}
		category := pick.Pick()
		if !category.Valid() {
			category = domain.CategoryOther
		}
		staged = append(staged, assignment{pos: i, category: category})
	}
	if len(staged) == 0 || (proceed != nil && !proceed()) {
		return nil
	}

	changed := make([]string, 0, len(staged))
	for _, a := range staged {
		doc := &c.docs[a.pos]
		doc.Status = domain.StatusClassified
		doc.Category = a.category
		changed = append(changed, doc.ID)
	}
	return changed
}

func (c *Catalog) Get(id string) (domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, ok := c.index[id]
	if !ok {
		return domain.Document{}, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return c.docs[pos], nil
}

// Snapshot returns a copy of the catalog in insertion order.
func (c *Catalog) Snapshot() []domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// CountAnalyzing reports how many documents still wait for classification.
func (c *Catalog) CountAnalyzing() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, doc := range c.docs {
		if doc.Status == domain.StatusAnalyzing {
			n++
		}
	}
	return n
}

func (c *Catalog) now() time.Time {
	if c.clock == nil {
		return time.Now().UTC()
	}
	return c.clock.Now()
}
