// Package domain holds the XP progression rules.
package domain

// Awards.
const (
	// ActivityAward is granted for every inbound message.
	ActivityAward int64 = 10
	// QuizBonus is granted for a correct quiz answer.
	QuizBonus int64 = 50

	xpPerLevel int64 = 100
)

// Progress is an identity's XP total and the level derived from it.
type Progress struct {
	XP    int64
	Level int64
}

// Level returns floor(xp / 100).
func Level(xp int64) int64 {
	if xp <= 0 {
		return 0
	}
	return xp / xpPerLevel
}

// ProgressOf builds the Progress for xp.
func ProgressOf(xp int64) Progress {
	return Progress{XP: xp, Level: Level(xp)}
}
