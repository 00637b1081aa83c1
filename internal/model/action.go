package model

// Action is a human-friendly battery operating mode for a period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// GridAction is the grid-side counterpart of Action.
type GridAction string

const (
	GridBuying  GridAction = "BUYING"
	GridIdle    GridAction = "IDLE"
	GridSelling GridAction = "SELLING"
)

// flowEpsilon absorbs solver noise around zero.
const flowEpsilon = 1e-6

func ActionFromFlows(charge, discharge float64) Action {
	switch {
	case charge-discharge > flowEpsilon:
		return ActionCharging
	case discharge-charge > flowEpsilon:
		return ActionDischarging
	default:
		return ActionIdle
	}
}

func GridActionFromFlows(buy, sell float64) GridAction {
	switch {
	case buy-sell > flowEpsilon:
		return GridBuying
	case sell-buy > flowEpsilon:
		return GridSelling
	default:
		return GridIdle
	}
}
