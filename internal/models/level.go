package models

import (
	"strconv"
	"strings"
)

// Level is an AuroraWatch UK alert level. Higher values are more severe.
type Level int

const (
	LevelNone   Level = -1 // no level: unresolved reading or no alert sent
	LevelGreen  Level = 0
	LevelYellow Level = 1
	LevelAmber  Level = 2
	LevelRed    Level = 3
)

// Levels lists the recognized levels from least to most severe.
var Levels = []Level{LevelGreen, LevelYellow, LevelAmber, LevelRed}

// ParseLevel maps a feed status token to a Level. Tokens are matched exactly.
func ParseLevel(token string) (Level, bool) {
	switch token {
	case "green":
		return LevelGreen, true
	case "yellow":
		return LevelYellow, true
	case "amber":
		return LevelAmber, true
	case "red":
		return LevelRed, true
	default:
		return LevelNone, false
	}
}

// ParseLevelName is the lenient variant used for user input such as query
// parameters; it ignores case and also accepts the numeric rank.
func ParseLevelName(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if l, ok := ParseLevel(s); ok {
		return l, true
	}
	for _, l := range Levels {
		if s == strconv.Itoa(int(l)) {
			return l, true
		}
	}
	return LevelNone, false
}

func (l Level) Valid() bool {
	return l >= LevelGreen && l <= LevelRed
}

// String returns the feed token for l.
func (l Level) String() string {
	switch l {
	case LevelGreen:
		return "green"
	case LevelYellow:
		return "yellow"
	case LevelAmber:
		return "amber"
	case LevelRed:
		return "red"
	default:
		return "none"
	}
}

// Label returns the human-readable name used in notifications.
func (l Level) Label() string {
	switch l {
	case LevelGreen:
		return "Green"
	case LevelYellow:
		return "Yellow"
	case LevelAmber:
		return "Amber"
	case LevelRed:
		return "Red"
	default:
		return "Unknown"
	}
}

// Description is the AuroraWatch UK meaning of each level.
func (l Level) Description() string {
	switch l {
	case LevelGreen:
		return "No significant activity"
	case LevelYellow:
		return "Minor geomagnetic activity"
	case LevelAmber:
		return "Possible aurora"
	case LevelRed:
		return "Aurora likely"
	default:
		return "Status unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
