package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/store"
)

// Key is the settings-table key the preferences are saved under.
const Key = "ui.settings"

// Repository is the key-value storage the preferences are persisted in.
type Repository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Load reads saved preferences, filling unsaved fields from Defaults.
// A missing record is not an error.
func Load(repo Repository) (Settings, error) {
	s := Defaults()
	raw, err := repo.Get(Key)
	if errors.Is(err, store.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Defaults(), fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Defaults(), fmt.Errorf("saved settings: %w", err)
	}
	return s, nil
}

// Save writes the preferences.
func Save(repo Repository, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := repo.Set(Key, string(data)); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Persist saves every successful update of live to repo. Failures are passed
// to onErr when it is not nil.
func Persist(live *Live, repo Repository, onErr func(error)) {
	live.OnChange(func(s Settings) {
		if err := Save(repo, s); err != nil && onErr != nil {
			onErr(err)
		}
	})
}
