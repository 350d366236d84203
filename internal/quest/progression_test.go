package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgress(t *testing.T) {
	p := NewProgress()
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, 0, p.CurrentXP)
	assert.Equal(t, 500, p.XPToNextLevel)
	assert.Equal(t, []string{FirstMissionID}, p.UnlockedMissions)
	assert.Empty(t, p.CompletedMissions)
	assert.NotNil(t, p.CompletedMissions)
}

func TestAddXP(t *testing.T) {
	tests := []struct {
		name       string
		start      Progress
		award      int
		wantLevel  int
		wantXP     int
		wantGained int
	}{
		{name: "below threshold", start: Progress{CurrentLevel: 1}, award: 450, wantLevel: 1, wantXP: 450},
		{name: "exactly threshold", start: Progress{CurrentLevel: 1}, award: 500, wantLevel: 2, wantXP: 0, wantGained: 1},
		{name: "remainder carries", start: Progress{CurrentLevel: 1, CurrentXP: 400}, award: 150, wantLevel: 2, wantXP: 50, wantGained: 1},
		// 500 (L1) + 1000 (L2) + 1500 (L3) = 3000.
		{name: "chains several levels", start: Progress{CurrentLevel: 1}, award: 3200, wantLevel: 4, wantXP: 200, wantGained: 3},
		{name: "clamped at max level", start: Progress{CurrentLevel: MaxLevel, CurrentXP: 14900}, award: 500, wantLevel: MaxLevel, wantXP: MaxLevel * XPPerLevel},
		{name: "reaching max level clamps remainder", start: Progress{CurrentLevel: MaxLevel - 1, CurrentXP: 0}, award: 29*XPPerLevel + 40000, wantLevel: MaxLevel, wantXP: MaxLevel * XPPerLevel, wantGained: 1},
		{name: "non positive award ignored", start: Progress{CurrentLevel: 3, CurrentXP: 10, XPToNextLevel: 1500}, award: -5, wantLevel: 3, wantXP: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start
			gained := p.AddXP(tt.award)
			assert.Equal(t, tt.wantGained, gained)
			assert.Equal(t, tt.wantLevel, p.CurrentLevel)
			assert.Equal(t, tt.wantXP, p.CurrentXP)
			assert.Equal(t, tt.wantLevel*XPPerLevel, p.XPToNextLevel)
			assert.GreaterOrEqual(t, p.CurrentXP, 0)
			if p.CurrentLevel < MaxLevel {
				assert.Less(t, p.CurrentXP, p.XPToNextLevel)
			}
		})
	}
}

func TestCompleteAwardsOnceAndUnlocksNext(t *testing.T) {
	start := NewProgress()

	first := start.Complete(FirstMissionID, 50, "level1-mission2")
	assert.True(t, first.Awarded)
	assert.Equal(t, 50, first.After.CurrentXP)
	assert.Equal(t, []string{FirstMissionID}, first.After.CompletedMissions)
	assert.Equal(t, []string{FirstMissionID, "level1-mission2"}, first.After.UnlockedMissions)
	assert.Equal(t, start, first.Before)
	assert.Empty(t, start.CompletedMissions, "receiver must not be mutated")

	replay := first.After.Complete(FirstMissionID, 50, "level1-mission2")
	assert.False(t, replay.Awarded)
	assert.Equal(t, first.After, replay.After)
	assert.Zero(t, replay.LevelsGained)
}

func TestCompleteWithoutSuccessor(t *testing.T) {
	p := Progress{CurrentLevel: 2, XPToNextLevel: 1000, UnlockedMissions: []string{"level2-mission10"}, CompletedMissions: []string{}}

	completion := p.Complete("level2-mission10", 200, "")
	assert.True(t, completion.Awarded)
	assert.Equal(t, []string{"level2-mission10"}, completion.After.UnlockedMissions)
}

func TestCompleteLevelsUp(t *testing.T) {
	p := NewProgress()
	p.CurrentXP = 450

	completion := p.Complete(FirstMissionID, 100, "level1-mission2")
	assert.Equal(t, 1, completion.LevelsGained)
	assert.Equal(t, 2, completion.After.CurrentLevel)
	assert.Equal(t, 50, completion.After.CurrentXP)
	assert.Equal(t, 1000, completion.After.XPToNextLevel)
}

func TestUnlockedMissionsOnlyGrow(t *testing.T) {
	p := NewProgress()
	ids := []struct{ id, next string }{
		{"level1-mission1", "level1-mission2"},
		{"level1-mission2", "level1-mission3"},
		{"level1-mission1", "level1-mission2"},
		{"level1-mission3", "level1-mission4"},
	}
	for _, step := range ids {
		before := len(p.UnlockedMissions)
		p = p.Complete(step.id, 10, step.next).After
		assert.GreaterOrEqual(t, len(p.UnlockedMissions), before)
	}
	assert.Equal(t, []string{"level1-mission1", "level1-mission2", "level1-mission3", "level1-mission4"}, p.UnlockedMissions)
	assert.Equal(t, 30, p.CurrentXP)
}
