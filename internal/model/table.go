package model

// RecentChangeRow is one line of the recent closes table.
// PercentChange is nil when there is no earlier close to compare with.
type RecentChangeRow struct {
	Date          string   `json:"date"`
	Close         float64  `json:"close"`
	PercentChange *float64 `json:"percent_change"`
}

// ChangeTint is the background highlight of a percent-change cell.
type ChangeTint string

const (
	TintNone ChangeTint = ""
	TintBlue ChangeTint = "rgba(75, 137, 220, 0.5)"
	TintRed  ChangeTint = "rgba(219,68,85,0.3)"
)

// TintFor maps a change to its highlight: falls are blue, rises are red.
func TintFor(change *float64) ChangeTint {
	switch {
	case change == nil:
		return TintNone
	case *change < 0:
		return TintBlue
	case *change > 0:
		return TintRed
	default:
		return TintNone
	}
}
