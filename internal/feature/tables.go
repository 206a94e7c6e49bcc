package feature

// IntegrityFault records a non-fatal data-integrity problem found while
// indexing or assembling rows, e.g. a compound key appearing twice in a
// one-to-one table. Faults are reported alongside results, never raised.
type IntegrityFault struct {
	Table  string `json:"table"`
	Key    string `json:"composite_key"`
	Reason string `json:"reason"`
}

// Tables is a dataset re-indexed by compound key. One-to-one tables map a key
// to a single row; synonyms map a key to the ordered list of its rows.
type Tables struct {
	Features map[Key]FeatureRow
	Names    map[Key]NameRow
	Synonyms map[Key][]SynonymRow
	Points   map[Key]GeomRow
	Polygons map[Key]GeomRow
}

// Index converts a raw dataset into its keyed form. A key recurring in a
// one-to-one table is an integrity fault: the first-seen row wins and the
// duplicate is recorded. Synonym rows accumulate in input order.
func Index(ds *Dataset) (*Tables, []IntegrityFault) {
	t := &Tables{
		Features: make(map[Key]FeatureRow, len(ds.Features)),
		Names:    make(map[Key]NameRow, len(ds.Names)),
		Synonyms: make(map[Key][]SynonymRow),
		Points:   make(map[Key]GeomRow, len(ds.Points)),
		Polygons: make(map[Key]GeomRow, len(ds.Polygons)),
	}
	var faults []IntegrityFault

	dup := func(table string, k Key) {
		faults = append(faults, IntegrityFault{
			Table:  table,
			Key:    k.String(),
			Reason: "duplicate compound key",
		})
	}

	for _, row := range ds.Features {
		if _, ok := t.Features[row.Key]; ok {
			dup(TableFeatures, row.Key)
			continue
		}
		t.Features[row.Key] = row
	}
	for _, row := range ds.Names {
		if _, ok := t.Names[row.Key]; ok {
			dup(TableNames, row.Key)
			continue
		}
		t.Names[row.Key] = row
	}
	for _, row := range ds.Points {
		if _, ok := t.Points[row.Key]; ok {
			dup(TablePoints, row.Key)
			continue
		}
		t.Points[row.Key] = row
	}
	for _, row := range ds.Polygons {
		if _, ok := t.Polygons[row.Key]; ok {
			dup(TablePolygons, row.Key)
			continue
		}
		t.Polygons[row.Key] = row
	}
	for _, row := range ds.Synonyms {
		t.Synonyms[row.Key] = append(t.Synonyms[row.Key], row)
	}

	return t, faults
}

// Merge applies one staging table set onto a production table set and returns
// a new value; neither input is mutated. Non-synonym records present in
// staging replace the production record for that key in full. Synonym records
// append to the production list, or become the entry when the key is new.
// Applying several staging sets in order gives last-set-wins semantics for
// the replacing tables.
func Merge(prod, staging *Tables) *Tables {
	out := &Tables{
		Features: make(map[Key]FeatureRow, len(prod.Features)),
		Names:    make(map[Key]NameRow, len(prod.Names)),
		Synonyms: make(map[Key][]SynonymRow, len(prod.Synonyms)),
		Points:   make(map[Key]GeomRow, len(prod.Points)),
		Polygons: make(map[Key]GeomRow, len(prod.Polygons)),
	}

	for k, v := range prod.Features {
		out.Features[k] = v
	}
	for k, v := range prod.Names {
		out.Names[k] = v
	}
	for k, v := range prod.Points {
		out.Points[k] = v
	}
	for k, v := range prod.Polygons {
		out.Polygons[k] = v
	}
	for k, v := range prod.Synonyms {
		out.Synonyms[k] = append([]SynonymRow(nil), v...)
	}

	if staging == nil {
		return out
	}

	for k, v := range staging.Features {
		out.Features[k] = v
	}
	for k, v := range staging.Names {
		out.Names[k] = v
	}
	for k, v := range staging.Points {
		out.Points[k] = v
	}
	for k, v := range staging.Polygons {
		out.Polygons[k] = v
	}
	for k, v := range staging.Synonyms {
		out.Synonyms[k] = append(out.Synonyms[k], v...)
	}

	return out
}

// MergeAll folds a sequence of staging table sets onto production in the
// given order.
func MergeAll(prod *Tables, staging []*Tables) *Tables {
	merged := prod
	for _, s := range staging {
		merged = Merge(merged, s)
	}
	return merged
}
