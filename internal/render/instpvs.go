package render

import (
	"strconv"

	"github.com/beamline-io/dataweb/internal/model"
)

// pvLabel pairs an instrument PV name with its display label. Known PVs
// render first, in the order declared here; PVs absent from this list
// follow with their raw names.
type pvLabel struct {
	PV    string
	Label string
}

var knownInstPVs = []pvLabel{
	{"RUNSTATE", "Run Status"},
	{"RUNNUMBER", "Run Number"},
	{"_RBNUMBER", "RB Number"},
	{"TITLE", "Title"},
	{"_USERNAME", "Users"},
	{"STARTTIME", "Start Time"},
	{"RUNDURATION", "Total Run Time"},
	{"RUNDURATION_PD", "Period Run Time"},
	{"GOODFRAMES", "Good Frames (Total)"},
	{"GOODFRAMES_PD", "Good Frames (Period)"},
	{"RAWFRAMES", "Raw Frames (Total)"},
	{"RAWFRAMES_PD", "Raw Frames (Period)"},
	{"PERIOD", "Current Period"},
	{"NUMPERIODS", "Number of Periods"},
	{"PERIODSEQ", "Period Sequence"},
	{"BEAMCURRENT", "Beam Current"},
	{"TOTALUAMPS", "Total Uamps"},
	{"COUNTRATE", "Count Rate"},
	{"DAEMEMORYUSED", "DAE Memory Used"},
	{"TOTALCOUNTS", "Total DAE Counts"},
	{"DAETIMINGSOURCE", "DAE Timing Source"},
	{"MONITORCOUNTS", "Monitor Counts"},
	{"MONITORSPECTRUM", "Monitor Spectrum"},
	{"MONITORFROM", "Monitor From"},
	{"MONITORTO", "Monitor To"},
	{"NUMTIMECHANNELS", "Number of Time Channels"},
	{"NUMSPECTRA", "Number of Spectra"},
}

// Header summary panels. Each panel is a fixed selection of instrument
// PVs; absent PVs are simply skipped.
var (
	runInfoPVs = []pvLabel{
		{"RUNNUMBER", "Run Number"},
		{"_RBNUMBER", "RB Number"},
		{"GOODFRAMES", "Good Frames"},
		{"RAWFRAMES", "Raw Frames"},
		{"BEAMCURRENT", "Beam Current"},
		{"TOTALCOUNTS", "Total DAE Counts"},
		{"MONITORCOUNTS", "Monitor Counts"},
	}
	timeInfoPVs = []pvLabel{
		{"STARTTIME", "Start Time"},
		{"RUNDURATION", "Total Run Time"},
		{"RUNDURATION_PD", "Period Run Time"},
	}
	periodInfoPVs = []pvLabel{
		{"PERIOD", "Current Period"},
		{"NUMPERIODS", "Number of Periods"},
		{"PERIODSEQ", "Period Sequence"},
	}
)

// durationPVs hold whole seconds on the wire and are humanized for
// display.
var durationPVs = map[string]bool{
	"RUNDURATION":    true,
	"RUNDURATION_PD": true,
}

// humanizeSeconds rewrites a whole-second count as "H hr M min S s".
// Values that are not plain integers (already humanized, or from a
// disconnected block) pass through untouched.
func humanizeSeconds(b model.Block) string {
	if !b.Connected() {
		return b.Value
	}
	total, err := strconv.Atoi(b.Value)
	if err != nil || total < 0 {
		return b.Value
	}

	seconds := total % 60
	minutes := total / 60
	hours := minutes / 60
	minutes %= 60

	switch {
	case hours == 0 && minutes == 0:
		return b.Value + " s"
	case hours == 0:
		return strconv.Itoa(minutes) + " min " + strconv.Itoa(seconds) + " s"
	default:
		return strconv.Itoa(hours) + " hr " + strconv.Itoa(minutes) + " min " + strconv.Itoa(seconds) + " s"
	}
}
