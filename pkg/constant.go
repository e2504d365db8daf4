package pkg

import "time"

// enum of cell role assignment
type Role uint8

const (
	START Role = iota
	END
	WALL
)

func GetRole(role string) (Role, bool) {
	switch role {
	case "start":
		return START, true
	case "end":
		return END, true
	case "wall":
		return WALL, true
	default:
		return WALL, false
	}
}

const (
	INF_DISTANCE int = 1<<31 - 1

	// one hop between 4-neighbors
	UNIT_EDGE_WEIGHT = 1

	DEFAULT_ROWS = 10
	DEFAULT_COLS = 10
)

// enum of visualization speed preset
type Speed string

const (
	SPEED_FAST   Speed = "fast"
	SPEED_MEDIUM Speed = "medium"
	SPEED_SLOW   Speed = "slow"
)

// GetSpeedDelay maps a preset to the delay between explore events. unknown preset -> medium.
func GetSpeedDelay(speed string) time.Duration {
	switch Speed(speed) {
	case SPEED_FAST:
		return 10 * time.Millisecond
	case SPEED_MEDIUM:
		return 50 * time.Millisecond
	case SPEED_SLOW:
		return 150 * time.Millisecond
	default:
		return 50 * time.Millisecond
	}
}

// path reconstruction is always paced twice as slow as exploration
const PATH_DELAY_FACTOR = 2

type Status string

const (
	STATUS_READY             Status = "ready"
	STATUS_SEARCHING         Status = "searching"
	STATUS_PATH_FOUND        Status = "path found"
	STATUS_NO_PATH           Status = "no path found"
	STATUS_MISSING_ENDPOINTS Status = "missing endpoints"
	STATUS_CANCELLED         Status = "cancelled"
)
