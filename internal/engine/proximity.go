package engine

// Level is the urgency tier of an occurrence, used to color rows.
type Level int

const (
	LevelLater Level = iota
	LevelNear
	LevelSoon
	LevelTomorrow
	LevelToday
)

// ARGB colors per level. LevelLater is transparent.
var levelColors = map[Level]uint32{
	LevelToday:    0xFFE53935,
	LevelTomorrow: 0xFFEF5350,
	LevelSoon:     0xFFFF8A65,
	LevelNear:     0xFFFFB74D,
	LevelLater:    0x00000000,
}

var levelNames = map[Level]string{
	LevelToday:    "today",
	LevelTomorrow: "tomorrow",
	LevelSoon:     "soon",
	LevelNear:     "near",
	LevelLater:    "later",
}

// Proximity maps a days-until value to its Level.
func Proximity(daysUntil int) Level {
	switch daysUntil {
	case 0:
		return LevelToday
	case 1:
		return LevelTomorrow
	case 2:
		return LevelSoon
	case 3:
		return LevelNear
	default:
		return LevelLater
	}
}

// Color returns the ARGB color of the level.
func (l Level) Color() uint32 {
	return levelColors[l]
}

func (l Level) String() string {
	return levelNames[l]
}
