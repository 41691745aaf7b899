// Package provider persists the set of approved OpenID Connect providers.
//
// The whole set is stored as one JSON document in the settings table so a
// settings save replaces it atomically, mirroring how a single serialized
// option would be stored by the host application.
package provider

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/setting"
)

// SettingName is the settings-table key holding the serialized provider set.
const SettingName = "openid_connect_providers"

var (
	// ErrProviderNotFound is returned when a provider URL is not in the approved set.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrEmptyProviderURL is returned when a record carries no provider URL.
	ErrEmptyProviderURL = errors.New("provider url cannot be empty")
	// ErrEmptyCredentials is returned when a record carries no client credentials.
	ErrEmptyCredentials = errors.New("provider client credentials cannot be empty")
)

// Record holds the relying-party credentials for one approved provider.
type Record struct {
	ProviderURL  string `json:"provider_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Store reads and writes the approved provider set.
//
// The settings row is not compare-and-swap safe, so every
// read-modify-write cycle holds the store mutex. Lookups share it too;
// they are cheap single-row reads.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewStore creates a provider store on the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns all approved providers sorted by provider URL.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(set))
	for _, rec := range set {
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProviderURL < out[j].ProviderURL })

	return out, nil
}

// Get returns the record for the given provider URL.
// Returns ErrProviderNotFound if the URL is not approved.
func (s *Store) Get(providerURL string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		return nil, err
	}

	rec, ok := set[providerURL]
	if !ok {
		return nil, ErrProviderNotFound
	}

	return &rec, nil
}

// Upsert adds or replaces the record for its provider URL.
func (s *Store) Upsert(rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		return err
	}

	set[rec.ProviderURL] = rec

	return s.save(set)
}

// Remove deletes the record for the given provider URL.
// Removing an unknown URL is a no-op.
func (s *Store) Remove(providerURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := set[providerURL]; !ok {
		return nil
	}

	delete(set, providerURL)

	return s.save(set)
}

// ReplaceAll swaps the complete provider set in one write.
// Used by the settings save so the stored set is never observed
// half-updated.
func (s *Store) ReplaceAll(recs []Record) error {
	set := make(map[string]Record, len(recs))

	for _, rec := range recs {
		if err := validateRecord(rec); err != nil {
			return err
		}

		set[rec.ProviderURL] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(set)
}

// load reads the serialized set; a missing setting row is an empty set.
func (s *Store) load() (map[string]Record, error) {
	row, err := setting.Get(s.db, SettingName)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return make(map[string]Record), nil
		}

		return nil, err
	}

	set := make(map[string]Record)
	if err := json.Unmarshal(row.Value, &set); err != nil {
		return nil, err
	}

	return set, nil
}

// save writes the serialized set. An empty set drops the settings row,
// the counterpart of load treating a missing row as an empty set.
func (s *Store) save(set map[string]Record) error {
	if len(set) == 0 {
		if err := setting.DeleteByName(s.db, SettingName); err != nil &&
			!errors.Is(err, setting.ErrSettingNotFound) {
			return err
		}

		return nil
	}

	raw, err := json.Marshal(set)
	if err != nil {
		return err
	}

	_, err = setting.Set(s.db, SettingName, raw)

	return err
}

func validateRecord(rec Record) error {
	if rec.ProviderURL == "" {
		return ErrEmptyProviderURL
	}

	// a record with empty credentials must never reach the store
	if rec.ClientID == "" || rec.ClientSecret == "" {
		return ErrEmptyCredentials
	}

	return nil
}
