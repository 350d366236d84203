package mission

import (
	"fmt"
	"regexp"
	"strconv"
)

// MissionsPerLevel is the mission number whose completion opens the next level.
const MissionsPerLevel = 10

var idPattern = regexp.MustCompile(`^level(\d+)-mission(\d+)$`)

type ID struct {
	Level  int
	Number int
}

func ParseID(raw string) (ID, error) {
	match := idPattern.FindStringSubmatch(raw)
	if match == nil {
		return ID{}, fmt.Errorf("invalid mission id %q: want level{N}-mission{M}", raw)
	}
	level, err := strconv.Atoi(match[1])
	if err != nil {
		return ID{}, fmt.Errorf("invalid mission id %q: %w", raw, err)
	}
	number, err := strconv.Atoi(match[2])
	if err != nil {
		return ID{}, fmt.Errorf("invalid mission id %q: %w", raw, err)
	}
	if level < 1 || number < 1 {
		return ID{}, fmt.Errorf("invalid mission id %q: level and mission start at 1", raw)
	}
	return ID{Level: level, Number: number}, nil
}

func (id ID) String() string {
	return fmt.Sprintf("level%d-mission%d", id.Level, id.Number)
}

func (id ID) Less(other ID) bool {
	if id.Level != other.Level {
		return id.Level < other.Level
	}
	return id.Number < other.Number
}

// NextID returns the mission unlocked by completing raw. Missions 1..9 unlock
// their successor in the same level; mission 10 unlocks mission 1 of the next
// level unless raw is already at maxLevel.
func NextID(raw string, maxLevel int) (string, bool) {
	id, err := ParseID(raw)
	if err != nil {
		return "", false
	}
	if id.Number < MissionsPerLevel {
		return ID{Level: id.Level, Number: id.Number + 1}.String(), true
	}
	if id.Number == MissionsPerLevel && id.Level < maxLevel {
		return ID{Level: id.Level + 1, Number: 1}.String(), true
	}
	return "", false
}
