package feature

import (
	"log/slog"

	"github.com/geostack-labs/geoverify/internal/geom"
)

// AssembleResult is the output of one assembly pass: the canonical feature
// map plus the integrity faults encountered while building it.
type AssembleResult struct {
	Features map[Key]*Feature
	Faults   []IntegrityFault
}

// Assemble builds one Feature per compound key from an indexed (and already
// merged, if staging was involved) table set.
//
// Rows layer in a fixed order: the features table seeds the identity
// skeleton, geometry rows attach point and polygon, name rows fill locales
// and codes, synonym rows append last. A key seen only in an auxiliary table
// still yields a feature (with unknown class), matching the behavior of the
// relational extract. Geometry text that fails to parse is an integrity
// fault; the feature keeps going without that geometry.
func Assemble(t *Tables, logger *slog.Logger) *AssembleResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := &AssembleResult{Features: make(map[Key]*Feature, len(t.Features))}

	get := func(k Key) *Feature {
		if f, ok := res.Features[k]; ok {
			return f
		}
		f := &Feature{
			Key:   k,
			Class: ClassUnknown,
			Props: Properties{Names: make(map[string]string)},
		}
		res.Features[k] = f
		return f
	}

	for k, row := range t.Features {
		f := get(k)
		f.Class = row.Class
		f.ParentID = row.ParentID
	}

	attach := func(table string, rows map[Key]GeomRow) {
		for k, row := range rows {
			f := get(k)
			g, err := geom.Parse(row.Data, row.Encoding)
			if err != nil {
				logger.Warn("unparsable geometry", "table", table, "key", k.String(), "error", err)
				res.Faults = append(res.Faults, IntegrityFault{
					Table:  table,
					Key:    k.String(),
					Reason: err.Error(),
				})
				continue
			}
			f.Geom.Attach(g)
		}
	}
	attach(TablePoints, t.Points)
	attach(TablePolygons, t.Polygons)

	for k, row := range t.Names {
		f := get(k)
		for locale, name := range row.Locales {
			if name == nil {
				continue
			}
			f.Props.Names[NormalizeLocale(locale)] = *name
		}
		if row.FIPS != nil {
			f.Props.FIPS = *row.FIPS
		}
		if row.ISO2 != nil {
			f.Props.ISO2 = *row.ISO2
		}
		if row.ISO3 != nil {
			f.Props.ISO3 = *row.ISO3
		}
	}

	for k, rows := range t.Synonyms {
		f := get(k)
		for _, row := range rows {
			if row.IsDisplayName {
				f.Props.Names[NormalizeLocale(row.Locale)] = row.Name
				continue
			}
			f.Props.Synonyms = append(f.Props.Synonyms, row.Name)
		}
	}

	if n := len(res.Faults); n > 0 {
		logger.Info("assembly finished with integrity faults", "features", len(res.Features), "faults", n)
	}
	return res
}
