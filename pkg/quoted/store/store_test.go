package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quotehub/quoted/pkg/quoted/models"
)

func setupTestStore(t *testing.T) (*Store, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return New(db), db
}

func tagCount(t *testing.T, db *gorm.DB, quoteID uint) int64 {
	var count int64
	if err := db.Model(&models.Tag{}).Where("quote_id = ?", quoteID).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count tags: %v", err)
	}
	return count
}

func TestCreateNormalizesTags(t *testing.T) {
	s, _ := setupTestStore(t)

	created, err := s.Create("Test quote", "Test source", []string{"b", "a", "a", " "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []string{"a", "b"}
	if !reflect.DeepEqual(created.Tags, want) {
		t.Errorf("Expected tags %v, got %v", want, created.Tags)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("Expected created_at == updated_at on creation, got %v / %v",
			created.CreatedAt, created.UpdatedAt)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t)

	created, err := s.Create("Imagination is more important than knowledge.", "Einstein",
		[]string{"physics", "creativity"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Quote != created.Quote {
		t.Errorf("Expected quote %q, got %q", created.Quote, got.Quote)
	}
	if got.Source != created.Source {
		t.Errorf("Expected source %q, got %q", created.Source, got.Source)
	}
	if !reflect.DeepEqual(got.Tags, []string{"creativity", "physics"}) {
		t.Errorf("Expected sorted tags, got %v", got.Tags)
	}
}

func TestCreateRejectsBlankFields(t *testing.T) {
	s, db := setupTestStore(t)

	if _, err := s.Create("   ", "Someone", nil); !errors.Is(err, ErrEmptyQuote) {
		t.Errorf("Expected ErrEmptyQuote for blank text, got %v", err)
	}
	if _, err := s.Create("Text", "\t\n", nil); !errors.Is(err, ErrEmptyQuote) {
		t.Errorf("Expected ErrEmptyQuote for blank source, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Quote{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count quotes: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no quotes persisted, found %d", count)
	}
}

func TestUpdateRejectsBlankFields(t *testing.T) {
	s, _ := setupTestStore(t)

	created, err := s.Create("Original", "Someone", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := s.Update(created.ID, "  ", "Someone", nil); !errors.Is(err, ErrEmptyQuote) {
		t.Errorf("Expected ErrEmptyQuote for blank text, got %v", err)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Quote != "Original" {
		t.Errorf("Expected quote unchanged after rejected update, got %q", got.Quote)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.GetByID(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReplacesTags(t *testing.T) {
	s, _ := setupTestStore(t)

	created, err := s.Create("Original", "Someone", []string{"x"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	updated, err := s.Update(created.ID, "Revised", "Someone Else", []string{"y"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !reflect.DeepEqual(updated.Tags, []string{"y"}) {
		t.Errorf("Expected tags [y], got %v", updated.Tags)
	}
	if updated.CreatedAt.Unix() != created.CreatedAt.Unix() {
		t.Errorf("Expected created_at preserved, got %v (was %v)",
			updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("Expected updated_at to advance, got %v (was %v)",
			updated.UpdatedAt, created.UpdatedAt)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID after update failed: %v", err)
	}
	if !reflect.DeepEqual(got.Tags, []string{"y"}) {
		t.Errorf("Expected persisted tags [y], got %v", got.Tags)
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.Update(99, "Text", "Source", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s, db := setupTestStore(t)

	created, err := s.Create("Doomed", "Nobody", []string{"ephemeral", "fleeting"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if n := tagCount(t, db, created.ID); n != 2 {
		t.Fatalf("Expected 2 tag rows before delete, got %d", n)
	}

	deleted, err := s.Delete(created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Error("Expected Delete to report true for an existing quote")
	}

	if n := tagCount(t, db, created.ID); n != 0 {
		t.Errorf("Expected no tag rows after delete, got %d", n)
	}
	if _, err := s.GetByID(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	deleted, err = s.Delete(created.ID)
	if err != nil {
		t.Fatalf("Second Delete failed: %v", err)
	}
	if deleted {
		t.Error("Expected Delete to report false for a missing quote")
	}
}

func TestGetRandom(t *testing.T) {
	s, _ := setupTestStore(t)

	quote, err := s.GetRandom()
	if err != nil {
		t.Fatalf("GetRandom on empty store failed: %v", err)
	}
	if quote != nil {
		t.Errorf("Expected nil from empty store, got %+v", quote)
	}

	ids := make(map[uint]bool)
	for _, text := range []string{"one", "two", "three"} {
		created, err := s.Create(text, "src", nil)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids[created.ID] = true
	}

	for i := 0; i < 10; i++ {
		quote, err := s.GetRandom()
		if err != nil {
			t.Fatalf("GetRandom failed: %v", err)
		}
		if quote == nil {
			t.Fatal("Expected a quote from non-empty store")
		}
		if !ids[quote.ID] {
			t.Errorf("GetRandom returned unknown quote ID %d", quote.ID)
		}
	}
}

func TestGetAllOrdering(t *testing.T) {
	s, _ := setupTestStore(t)

	first, _ := s.Create("first", "src", nil)
	time.Sleep(5 * time.Millisecond)
	second, _ := s.Create("second", "src", nil)

	all, err := s.GetAll(Filter{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 quotes, got %d", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("Expected most-recently-created first, got order %d, %d", all[0].ID, all[1].ID)
	}
}

func TestGetAllFilter(t *testing.T) {
	s, _ := setupTestStore(t)

	q1, _ := s.Create("Q1", "Einstein", []string{"physics"})
	q2, _ := s.Create("Q2", "Curie", []string{"chemistry"})

	bySource, err := s.GetAll(Filter{Source: "Einstein"})
	if err != nil {
		t.Fatalf("GetAll by source failed: %v", err)
	}
	if len(bySource) != 1 || bySource[0].ID != q1.ID {
		t.Errorf("Expected only Q1 for source Einstein, got %+v", bySource)
	}

	byTag, err := s.GetAll(Filter{Tag: "chemistry"})
	if err != nil {
		t.Fatalf("GetAll by tag failed: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != q2.ID {
		t.Errorf("Expected only Q2 for tag chemistry, got %+v", byTag)
	}

	byQuote, err := s.GetAll(Filter{Quote: "Q1"})
	if err != nil {
		t.Fatalf("GetAll by quote failed: %v", err)
	}
	if len(byQuote) != 1 || byQuote[0].ID != q1.ID {
		t.Errorf("Expected only Q1 for quote text Q1, got %+v", byQuote)
	}

	all, err := s.GetAll(Filter{})
	if err != nil {
		t.Fatalf("GetAll unfiltered failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected both quotes without filter, got %d", len(all))
	}
}

func TestGetAllFilterMatchesAnyCriterion(t *testing.T) {
	s, _ := setupTestStore(t)

	q1, _ := s.Create("Q1", "Einstein", []string{"physics"})
	q2, _ := s.Create("Q2", "Curie", []string{"chemistry"})

	// Source matches Q1, tag matches Q2: OR semantics returns both.
	both, err := s.GetAll(Filter{Source: "Einstein", Tag: "chemistry"})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(both) != 2 {
		t.Fatalf("Expected both quotes for OR filter, got %d", len(both))
	}
	got := map[uint]bool{both[0].ID: true, both[1].ID: true}
	if !got[q1.ID] || !got[q2.ID] {
		t.Errorf("Expected Q1 and Q2, got %+v", both)
	}
}

func TestGetAllEmptyTagsMarshalAsEmptyList(t *testing.T) {
	s, _ := setupTestStore(t)

	created, err := s.Create("untagged", "src", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Tags == nil {
		t.Error("Expected non-nil empty tag slice")
	}
	if len(got.Tags) != 0 {
		t.Errorf("Expected no tags, got %v", got.Tags)
	}
}
