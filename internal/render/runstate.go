package render

// Color codes assigned to run states. These are symbolic names the page
// styles map to actual CSS colors.
const (
	ColorGreen     = "green"
	ColorLightBlue = "lightblue"
	ColorRed       = "red"
	ColorGoldenrod = "goldenrod"
	ColorBlue      = "blue"
	ColorDarkRed   = "darkred"
	ColorYellow    = "yellow"
	ColorDarkBlue  = "darkblue"
)

// runStateColors maps a RUNSTATE value to its color by exact match.
// The legacy page listed some states in pairs (WAITING/VETOING,
// ENDING/ABORTING, BEGINNING/RESUMING, STORING/SAVING) of which only
// the first was ever compared; the second state of each pair never
// received a color and still does not. Unlisted states get none.
var runStateColors = map[string]string{
	"RUNNING":   ColorGreen,
	"SETUP":     ColorLightBlue,
	"PAUSED":    ColorRed,
	"WAITING":   ColorGoldenrod,
	"ENDING":    ColorBlue,
	"PAUSING":   ColorDarkRed,
	"BEGINNING": ColorYellow,
	"STORING":   ColorDarkBlue,
}

// RunStateColor returns the color code for a run state, or "" when the
// state has no assigned color.
func RunStateColor(state string) string {
	return runStateColors[state]
}
