package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// sectionLimit caps the per-section detail listing in text output. The JSON
// form always carries everything.
const sectionLimit = 25

// WriteText renders a human-readable summary: one table with a row per check
// plus a capped listing of the offending keys.
func (r *Report) WriteText(w io.Writer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Violations", "Topology Faults"})

	if r.InvalidShapes != nil {
		t.AppendRow(table.Row{"invalid shapes", len(r.InvalidShapes.Keys), 0})
	}
	if r.PointInPolygon != nil {
		t.AppendRow(table.Row{"point in polygon", len(r.PointInPolygon.Keys), 0})
	}
	if r.Overlaps != nil {
		t.AppendRow(table.Row{"overlapping polygons", len(r.Overlaps.Pairs), len(r.Overlaps.Faults)})
	}
	if r.Containment != nil {
		t.AppendRow(table.Row{"parent containment", len(r.Containment.Keys), len(r.Containment.Faults)})
	}
	t.Render()

	if n := len(r.IntegrityFaults); n > 0 {
		_, _ = fmt.Fprintf(w, "%d integrity faults during assembly\n", n)
	}

	if r.InvalidShapes != nil && len(r.InvalidShapes.Keys) > 0 {
		writeSection(w, "Invalid shapes", r.InvalidShapes.Keys, func(k string) string {
			return fmt.Sprintf("%s: %s", k, r.InvalidShapes.Reasons[k])
		})
	}
	if r.PointInPolygon != nil && len(r.PointInPolygon.Keys) > 0 {
		writeSection(w, "Points outside own polygon", r.PointInPolygon.Keys, nil)
	}
	if r.Overlaps != nil && len(r.Overlaps.Pairs) > 0 {
		writeSection(w, "Overlapping polygon pairs", r.Overlaps.Pairs, nil)
	}
	if r.Containment != nil && len(r.Containment.Keys) > 0 {
		writeSection(w, "Polygons outside parent", r.Containment.Keys, nil)
	}

	return nil
}

func writeSection(w io.Writer, title string, keys []string, format func(string) string) {
	_, _ = fmt.Fprintf(w, "\n%s:\n%s\n", title, strings.Repeat("-", len(title)+1))
	for i, k := range keys {
		if i == sectionLimit {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(keys)-sectionLimit)
			break
		}
		line := k
		if format != nil {
			line = format(k)
		}
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}
