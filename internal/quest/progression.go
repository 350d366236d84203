package quest

import "slices"

const (
	XPPerLevel     = 500
	MaxLevel       = 30
	FirstMissionID = "level1-mission1"
)

type Progress struct {
	CurrentLevel      int      `json:"currentLevel"`
	CurrentXP         int      `json:"currentXP"`
	XPToNextLevel     int      `json:"xpToNextLevel"`
	CompletedMissions []string `json:"completedMissions"`
	UnlockedMissions  []string `json:"unlockedMissions"`
}

// Completion is the result of applying a mission completion to a Progress.
type Completion struct {
	Awarded      bool
	Before       Progress
	After        Progress
	LevelsGained int
}

func NewProgress() Progress {
	return Progress{
		CurrentLevel:      1,
		CurrentXP:         0,
		XPToNextLevel:     XPPerLevel,
		CompletedMissions: []string{},
		UnlockedMissions:  []string{FirstMissionID},
	}
}

func xpThreshold(level int) int {
	return level * XPPerLevel
}

// AddXP awards n experience points, chaining as many level-ups as the award
// pays for. At MaxLevel XP stops at the threshold. Returns levels gained.
func (p *Progress) AddXP(n int) int {
	if n <= 0 {
		return 0
	}

	p.CurrentXP += n
	gained := 0
	for p.CurrentLevel < MaxLevel && p.CurrentXP >= xpThreshold(p.CurrentLevel) {
		p.CurrentXP -= xpThreshold(p.CurrentLevel)
		p.CurrentLevel++
		gained++
	}
	p.XPToNextLevel = xpThreshold(p.CurrentLevel)
	if p.CurrentLevel >= MaxLevel && p.CurrentXP > p.XPToNextLevel {
		p.CurrentXP = p.XPToNextLevel
	}
	return gained
}

func (p Progress) IsUnlocked(missionID string) bool {
	return slices.Contains(p.UnlockedMissions, missionID)
}

func (p Progress) IsCompleted(missionID string) bool {
	return slices.Contains(p.CompletedMissions, missionID)
}

// Complete applies a first-time completion of missionID: it records the
// mission, unlocks next (when non-empty) and awards xp. Completing an already
// completed mission changes nothing and reports Awarded=false.
func (p Progress) Complete(missionID string, xp int, next string) Completion {
	before := p.Clone()
	if p.IsCompleted(missionID) {
		return Completion{Before: before, After: before.Clone()}
	}

	after := p.Clone()
	after.CompletedMissions = append(after.CompletedMissions, missionID)
	if !after.IsUnlocked(missionID) {
		after.UnlockedMissions = append(after.UnlockedMissions, missionID)
	}
	if next != "" && !after.IsUnlocked(next) {
		after.UnlockedMissions = append(after.UnlockedMissions, next)
	}
	gained := after.AddXP(xp)

	return Completion{
		Awarded:      true,
		Before:       before,
		After:        after,
		LevelsGained: gained,
	}
}

func (p Progress) Clone() Progress {
	clone := p
	clone.CompletedMissions = append([]string{}, p.CompletedMissions...)
	clone.UnlockedMissions = append([]string{}, p.UnlockedMissions...)
	return clone
}
