package render

import (
	"sort"
	"strings"

	"github.com/beamline-io/dataweb/internal/model"
)

// privatePVs hold values that identify people or proposals. They are
// redacted unless the instrument's DISPLAY PV allows them.
var privatePVs = map[string]bool{
	"TITLE":     true,
	"_USERNAME": true,
}

// Redaction marker shown in place of a private value.
const Unavailable = "Unavailable"

// Row kinds, used by the page styles.
const (
	RowValue        = "value"
	RowDisconnected = "disconnected"
	RowUnavailable  = "unavailable"
)

// Range-check marks.
const (
	RangePass = "pass"
	RangeFail = "fail"
)

// Row is one rendered block line.
type Row struct {
	Name  string
	Value string
	Kind  string
	Range string // RangePass, RangeFail or ""
	Alarm string // alarm text, shown in parentheses when non-empty
}

// Group is a heading plus the rows that survived filtering.
type Group struct {
	Name string
	Rows []Row
}

// Display is the full display tree for one snapshot. It is rebuilt from
// scratch every cycle; no state carries over between cycles.
type Display struct {
	ConfigName string
	RunState   string
	Color      string
	Title      string
	Users      string
	RunInfo    []Row
	TimeInfo   []Row
	PeriodInfo []Row
	Groups     []Group
	InstPVs    []Row
}

// Options gate what the display tree includes. ShowHidden is the
// viewer's choice; ShowPrivate is the instrument's, via its DISPLAY PV.
type Options struct {
	ShowHidden  bool
	ShowPrivate bool
}

// OptionsForSnapshot derives render options from the snapshot and the
// viewer's hidden-blocks toggle. A missing DISPLAY PV means private
// values are visible.
func OptionsForSnapshot(s *model.Snapshot, showHidden bool) Options {
	showPrivate := true
	if display, ok := s.InstPV("DISPLAY"); ok {
		switch display.Value {
		case "NO", "false", "0":
			showPrivate = false
		}
	}
	return Options{ShowHidden: showHidden, ShowPrivate: showPrivate}
}

// Build turns one snapshot into its display tree.
func Build(s *model.Snapshot, opts Options) *Display {
	d := &Display{ConfigName: s.ConfigName}

	if rs, ok := s.InstPV("RUNSTATE"); ok {
		d.RunState = rs.Value
		d.Color = RunStateColor(rs.Value)
	}

	d.Title = headerValue(s, "TITLE", opts)
	d.Users = headerValue(s, "_USERNAME", opts)

	d.RunInfo = panelRows(s, runInfoPVs, opts)
	d.TimeInfo = panelRows(s, timeInfoPVs, opts)
	d.PeriodInfo = panelRows(s, periodInfoPVs, opts)

	d.Groups = groupList(s, opts)
	d.InstPVs = instPVList(s, opts)

	return d
}

// rowForBlock applies the per-block display rules, in order: hidden
// blocks are omitted, disconnected blocks show only their status,
// private blocks are redacted, everything else shows its value with
// range and alarm annotations. ok is false when the block is omitted.
func rowForBlock(name string, b model.Block, opts Options) (Row, bool) {
	if !b.Visibility && !opts.ShowHidden {
		return Row{}, false
	}

	if b.Status == model.StatusDisconnected {
		return Row{Name: name, Value: b.Status, Kind: RowDisconnected}, true
	}

	if privatePVs[name] && !opts.ShowPrivate {
		return Row{Name: name, Value: Unavailable, Kind: RowUnavailable}, true
	}

	row := Row{Name: name, Value: b.Value, Kind: RowValue}

	if b.RCEnabled == model.RCYes {
		switch b.RCInRange {
		case model.RCYes:
			row.Range = RangePass
		case model.RCNo:
			row.Range = RangeFail
		}
	}

	if alarmVisible(b.Alarm) {
		row.Alarm = b.Alarm
	}

	return row, true
}

// alarmVisible reports whether alarm text is worth showing. "null" and
// "OK" prefixes cover the archiver's "no alarm" spellings such as
// "null null" and "OK/OK".
func alarmVisible(alarm string) bool {
	if alarm == "" {
		return false
	}
	return !strings.HasPrefix(alarm, "null") && !strings.HasPrefix(alarm, "OK")
}

// headerValue resolves a header PV to its display text, applying the
// same rules as block rows. Absent PVs give "".
func headerValue(s *model.Snapshot, name string, opts Options) string {
	b, ok := s.InstPV(name)
	if !ok {
		return ""
	}
	row, ok := rowForBlock(name, b, opts)
	if !ok {
		return ""
	}
	return row.Value
}

func panelRows(s *model.Snapshot, panel []pvLabel, opts Options) []Row {
	rows := make([]Row, 0, len(panel))
	for _, pl := range panel {
		b, ok := s.InstPV(pl.PV)
		if !ok {
			continue
		}
		row, ok := rowForBlock(pl.PV, b, opts)
		if !ok {
			continue
		}
		row.Name = pl.Label
		if row.Kind == RowValue && durationPVs[pl.PV] {
			row.Value = humanizeSeconds(b)
		}
		rows = append(rows, row)
	}
	return rows
}

// groupList renders the block groups. The "NONE" group displays as
// "OTHER"; groups left empty after filtering are omitted. Names are
// sorted so output is stable across polls.
func groupList(s *model.Snapshot, opts Options) []Group {
	groups := make([]Group, 0, len(s.Groups))

	for _, name := range sortedKeys(s.Groups) {
		blocks := s.Groups[name]

		rows := make([]Row, 0, len(blocks))
		for _, blockName := range sortedKeys(blocks) {
			if row, ok := rowForBlock(blockName, blocks[blockName], opts); ok {
				rows = append(rows, row)
			}
		}

		if len(rows) == 0 {
			continue
		}

		displayName := name
		if name == "NONE" {
			displayName = "OTHER"
		}
		groups = append(groups, Group{Name: displayName, Rows: rows})
	}

	return groups
}

// instPVList renders the instrument PVs: known PVs first, in the label
// mapping's declared order, then whatever is left under its raw name.
func instPVList(s *model.Snapshot, opts Options) []Row {
	rows := make([]Row, 0, len(s.InstPVs))
	seen := make(map[string]bool, len(knownInstPVs))

	for _, pl := range knownInstPVs {
		seen[pl.PV] = true
		b, ok := s.InstPV(pl.PV)
		if !ok {
			continue
		}
		row, ok := rowForBlock(pl.PV, b, opts)
		if !ok {
			continue
		}
		row.Name = pl.Label
		if row.Kind == RowValue && durationPVs[pl.PV] {
			row.Value = humanizeSeconds(b)
		}
		rows = append(rows, row)
	}

	for _, name := range sortedKeys(s.InstPVs) {
		if seen[name] {
			continue
		}
		if row, ok := rowForBlock(name, s.InstPVs[name], opts); ok {
			rows = append(rows, row)
		}
	}

	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
