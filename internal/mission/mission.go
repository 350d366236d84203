// Package mission holds the mission content model: the catalog of SQL exercises,
// their declarative validation rules, and the id arithmetic that drives unlocks.
package mission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("mission not found")

type Mission struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Level           int    `json:"level"`
	Description     string `json:"description"`
	Story           string `json:"story"`
	Hint            string `json:"hint"`
	XPReward        int    `json:"xpReward"`
	TableSetup      Setup  `json:"tableSetup"`
	ExpectedQuery   string `json:"expectedQuery,omitempty"`
	ValidationRules Rules  `json:"validationRules"`
}

// Setup is the ordered fixture SQL for a mission. The content format allows a
// single string or an array of strings.
type Setup []string

func (s *Setup) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if strings.TrimSpace(single) == "" {
			*s = nil
			return nil
		}
		*s = Setup{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("tableSetup must be a string or an array of strings: %w", err)
	}
	*s = Setup(many)
	return nil
}

// Validate checks the structural invariants a catalog relies on.
func (m Mission) Validate() error {
	id, err := ParseID(m.ID)
	if err != nil {
		return err
	}
	if m.Level != id.Level {
		return fmt.Errorf("mission %s: level %d does not match id", m.ID, m.Level)
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("mission %s: title is required", m.ID)
	}
	if m.XPReward < 0 {
		return fmt.Errorf("mission %s: xpReward must not be negative", m.ID)
	}
	if err := m.ValidationRules.Validate(); err != nil {
		return fmt.Errorf("mission %s: %w", m.ID, err)
	}
	return nil
}
