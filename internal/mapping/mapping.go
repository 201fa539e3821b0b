package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Table names accepted by CodeFor. They match the keys of the persisted
// mapping file.
const (
	TableDegree = "degree"
	TableSpec   = "spec"
)

// UnknownCode is returned for every key that has no assigned code. Unknown
// categories degrade prediction quality but must never block encoding.
const UnknownCode = 0

// Store holds the categorical code tables shared by the batch pipeline and
// the live prediction path. Codes are assigned out-of-band and are stable for
// the lifetime of a deployed model, so the store exposes no mutation API.
// A Store is read-only after Load and safe for concurrent use.
type Store struct {
	Degree map[string]int `json:"degree"`
	Spec   map[string]int `json:"spec"`
}

// NewStore returns an empty store in which every lookup resolves to UnknownCode.
func NewStore() *Store {
	return &Store{
		Degree: map[string]int{},
		Spec:   map[string]int{},
	}
}

// Load reads the persisted mapping table. A missing file is not an error: the
// store starts empty and every key resolves to UnknownCode. That keeps
// ingestion and prediction available, so the degradation is logged loudly
// instead of being swallowed.
func Load(path string, logger *zap.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("mapping table not found, every category will encode to the unknown code",
				zap.String("path", path),
			)
			return NewStore(), nil
		}
		return nil, fmt.Errorf("reading mapping table %q: %w", path, err)
	}

	store := NewStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parsing mapping table %q: %w", path, err)
	}

	if store.Degree == nil {
		store.Degree = map[string]int{}
	}
	if store.Spec == nil {
		store.Spec = map[string]int{}
	}

	logger.Info("mapping table loaded",
		zap.String("path", path),
		zap.Int("degrees", len(store.Degree)),
		zap.Int("specializations", len(store.Spec)),
	)

	return store, nil
}

// NormalizeKey applies the single normalization rule used everywhere a raw
// category string meets the mapping table: trim surrounding whitespace and
// fold to upper case.
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CodeFor normalizes raw and returns its assigned code, or UnknownCode when
// the key is absent or the table name is not recognized.
func (s *Store) CodeFor(table, raw string) int {
	var m map[string]int
	switch table {
	case TableDegree:
		m = s.Degree
	case TableSpec:
		m = s.Spec
	default:
		return UnknownCode
	}

	code, ok := m[NormalizeKey(raw)]
	if !ok {
		return UnknownCode
	}

	return code
}
