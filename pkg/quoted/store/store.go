// Package store owns all quote and tag persistence. Every mutating
// operation runs inside a single transaction so a reader never observes
// a quote with a half-replaced tag set.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quotehub/quoted/pkg/quoted/models"
	"github.com/quotehub/quoted/pkg/quoted/tagset"
)

// ErrNotFound is returned when the requested quote does not exist.
// It is a normal result, distinct from storage faults.
var ErrNotFound = errors.New("quote not found")

// ErrEmptyQuote is returned when quote text or source is blank after
// trimming. The HTTP layer validates this first; the store enforces it
// too so no caller can persist a blank quote.
var ErrEmptyQuote = errors.New("quote text and source must be non-empty")

// Store performs CRUD operations on quotes and their tags.
type Store struct {
	db *gorm.DB
}

// New creates a new quote store backed by the given database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// QuoteWithTags is the client-visible projection of a quote: the quote
// row plus its tag names, sorted ascending.
type QuoteWithTags struct {
	ID        uint      `json:"id"`
	Quote     string    `json:"quote"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
}

// Filter holds optional substring search criteria for GetAll. A quote
// matches if it matches any supplied non-empty criterion; with no
// criteria every quote matches. Matching is case-insensitive substring
// (SQL LIKE), including partial tag names.
type Filter struct {
	Quote  string
	Source string
	Tag    string
}

func (f Filter) empty() bool {
	return f.Quote == "" && f.Source == "" && f.Tag == ""
}

// Create inserts a new quote with its normalized tag set and returns the
// stored projection. created_at and updated_at are stamped to the same
// instant.
func (s *Store) Create(text, source string, tags []string) (*QuoteWithTags, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(source) == "" {
		return nil, ErrEmptyQuote
	}
	names := tagset.Normalize(tags)
	quote := models.Quote{Quote: text, Source: source}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		return insertTags(tx, quote.ID, names)
	})
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	return &QuoteWithTags{
		ID:        quote.ID,
		Quote:     quote.Quote,
		Source:    quote.Source,
		CreatedAt: quote.CreatedAt,
		UpdatedAt: quote.UpdatedAt,
		Tags:      names,
	}, nil
}

// GetByID returns a single quote with its tags, or ErrNotFound.
func (s *Store) GetByID(id uint) (*QuoteWithTags, error) {
	var quote models.Quote
	if err := s.db.Preload("Tags").First(&quote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching quote %d: %w", id, err)
	}
	return project(quote), nil
}

// GetAll returns every quote matching the filter, most recently created
// first. Re-querying with the same filter over the same data reproduces
// the same result.
func (s *Store) GetAll(filter Filter) ([]QuoteWithTags, error) {
	query := s.db.Preload("Tags").Order("created_at DESC, id DESC")

	if !filter.empty() {
		var conds []string
		var args []interface{}
		if filter.Quote != "" {
			conds = append(conds, "quote LIKE ?")
			args = append(args, like(filter.Quote))
		}
		if filter.Source != "" {
			conds = append(conds, "source LIKE ?")
			args = append(args, like(filter.Source))
		}
		if filter.Tag != "" {
			conds = append(conds, "id IN (SELECT quote_id FROM tags WHERE name LIKE ?)")
			args = append(args, like(filter.Tag))
		}
		query = query.Where(joinOr(conds), args...)
	}

	var quotes []models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	results := make([]QuoteWithTags, len(quotes))
	for i, quote := range quotes {
		results[i] = *project(quote)
	}
	return results, nil
}

// GetRandom returns one uniformly selected quote, or nil when the store
// is empty. Selection is per quote row, so tag count does not skew the
// distribution.
func (s *Store) GetRandom() (*QuoteWithTags, error) {
	var quote models.Quote
	err := s.db.Preload("Tags").Order("RANDOM()").Take(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching random quote: %w", err)
	}
	return project(quote), nil
}

// Update rewrites a quote's text and source and fully replaces its tag
// set with the normalized input. created_at is preserved; updated_at is
// advanced. The old tags are deleted and reinserted even when unchanged
// so the persisted set can never drift from the requested one.
func (s *Store) Update(id uint, text, source string, tags []string) (*QuoteWithTags, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(source) == "" {
		return nil, ErrEmptyQuote
	}
	names := tagset.Normalize(tags)
	var quote models.Quote

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&quote, id).Error; err != nil {
			return err
		}
		quote.Quote = text
		quote.Source = source
		if err := tx.Save(&quote).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		return insertTags(tx, quote.ID, names)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating quote %d: %w", id, err)
	}

	return &QuoteWithTags{
		ID:        quote.ID,
		Quote:     quote.Quote,
		Source:    quote.Source,
		CreatedAt: quote.CreatedAt,
		UpdatedAt: quote.UpdatedAt,
		Tags:      names,
	}, nil
}

// Delete removes a quote and all of its tags. It returns true when the
// quote existed and false when it did not.
func (s *Store) Delete(id uint) (bool, error) {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var quote models.Quote
		if err := tx.Select("id").First(&quote, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		// Explicit tag delete inside the same transaction rather than
		// relying on the sqlite cascade pragma being active.
		if err := tx.Where("quote_id = ?", id).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Quote{}, id).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("deleting quote %d: %w", id, err)
	}
	return deleted, nil
}

// insertTags creates one tag row per name for the given quote. Names are
// assumed already normalized.
func insertTags(tx *gorm.DB, quoteID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]models.Tag, len(names))
	for i, name := range names {
		rows[i] = models.Tag{QuoteID: quoteID, Name: name}
	}
	return tx.Create(&rows).Error
}

func project(quote models.Quote) *QuoteWithTags {
	names := make([]string, 0, len(quote.Tags))
	for _, tag := range quote.Tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return &QuoteWithTags{
		ID:        quote.ID,
		Quote:     quote.Quote,
		Source:    quote.Source,
		CreatedAt: quote.CreatedAt,
		UpdatedAt: quote.UpdatedAt,
		Tags:      names,
	}
}

func like(term string) string {
	return "%" + term + "%"
}

func joinOr(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " OR " + c
	}
	return out
}
