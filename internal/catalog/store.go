package catalog

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"fodmate-backend/pkg/logger"
)

// maxSearchResults bounds Search output; catalog order is preserved, no
// relevance ranking.
const maxSearchResults = 10

// FodmapDetails holds the per-compound severity codes from the source data.
// Valid codes are 0 (low), 1 (medium) and 2 (high).
type FodmapDetails struct {
	Oligos   int `json:"oligos"`
	Fructose int `json:"fructose"`
	Polyols  int `json:"polyols"`
	Lactose  int `json:"lactose"`
}

// FoodRecord is one read-only catalog entry. Two source schemas exist: the
// newer one carries rating/safeServing/tips/alternatives, the older one
// carries fodmapLevel/category/details. Load normalizes the older shape into
// Rating so queries only ever see the canonical form.
type FoodRecord struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     string         `json:"category,omitempty"`
	Rating       string         `json:"rating"`
	SafeServing  string         `json:"safeServing,omitempty"`
	Tips         string         `json:"tips,omitempty"`
	Alternatives []string       `json:"alternatives,omitempty"`
	Details      *FodmapDetails `json:"details,omitempty"`

	// FodmapLevel is the legacy rating field, only populated while loading.
	FodmapLevel string `json:"fodmapLevel,omitempty"`
}

// Store is the process-lifetime food catalog. The data file is read once on
// first use; a load failure degrades to an empty catalog so queries keep
// working.
type Store struct {
	path  string
	once  sync.Once
	foods []FoodRecord
	byID  map[string]FoodRecord
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewStoreWithRecords builds a pre-loaded store, used by tests and anywhere
// the catalog does not come from a file.
func NewStoreWithRecords(foods []FoodRecord) *Store {
	s := &Store{}
	s.once.Do(func() {})
	s.index(normalize(foods))
	return s
}

// Load reads the data file exactly once, also under concurrent first access.
func (s *Store) Load() {
	s.once.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			logger.Errorf("Failed to read food catalog %s: %v", s.path, err)
			s.index(nil)
			return
		}

		var foods []FoodRecord
		if err := json.Unmarshal(data, &foods); err != nil {
			logger.Errorf("Failed to parse food catalog %s: %v", s.path, err)
			s.index(nil)
			return
		}

		s.index(normalize(foods))
		logger.Infof("Loaded %d foods from %s", len(s.foods), s.path)
	})
}

func (s *Store) index(foods []FoodRecord) {
	s.foods = foods
	s.byID = make(map[string]FoodRecord, len(foods))
	for _, f := range foods {
		s.byID[f.ID] = f
	}
}

// normalize maps legacy records onto the canonical shape.
func normalize(foods []FoodRecord) []FoodRecord {
	out := make([]FoodRecord, 0, len(foods))
	for _, f := range foods {
		if f.Rating == "" && f.FodmapLevel != "" {
			f.Rating = strings.ToLower(f.FodmapLevel)
		}
		f.FodmapLevel = ""
		out = append(out, f)
	}
	return out
}

func (s *Store) FindByID(id string) (FoodRecord, bool) {
	s.Load()
	f, ok := s.byID[id]
	return f, ok
}

// Search matches query against food names and categories, case-insensitive,
// in catalog order. A food also matches when its name occurs inside the
// query, so a whole user utterance ("is banana ok?") finds "Banana".
func (s *Store) Search(query string) []FoodRecord {
	s.Load()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []FoodRecord
	for _, f := range s.foods {
		if len(results) >= maxSearchResults {
			break
		}
		name := strings.ToLower(f.Name)
		category := strings.ToLower(f.Category)
		if strings.Contains(name, q) || strings.Contains(q, name) ||
			(category != "" && strings.Contains(category, q)) {
			results = append(results, f)
		}
	}

	return results
}

func (s *Store) ListAll() []FoodRecord {
	s.Load()
	out := make([]FoodRecord, len(s.foods))
	copy(out, s.foods)
	return out
}

func (s *Store) FilterByRating(rating string) []FoodRecord {
	s.Load()
	var results []FoodRecord
	for _, f := range s.foods {
		if f.Rating == rating {
			results = append(results, f)
		}
	}
	return results
}

func (s *Store) FilterByCategory(category string) []FoodRecord {
	s.Load()
	var results []FoodRecord
	for _, f := range s.foods {
		if strings.EqualFold(f.Category, category) {
			results = append(results, f)
		}
	}
	return results
}

// Categories returns the distinct category names in catalog order.
func (s *Store) Categories() []string {
	s.Load()
	seen := make(map[string]bool)
	var categories []string
	for _, f := range s.foods {
		if f.Category == "" || seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		categories = append(categories, f.Category)
	}
	return categories
}
