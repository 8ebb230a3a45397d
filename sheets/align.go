package sheets

import "sort"

// AlignToHeader lays out map-shaped rows in the column order of header.
// Columns missing from the header are appended (sorted per row); the
// possibly extended header is returned alongside the value grid so the
// caller can rewrite the header row when it grew.
func AlignToHeader(header []string, rows []map[string]any) ([]string, [][]any) {
	aligned := make([]string, len(header))
	copy(aligned, header)

	index := make(map[string]int, len(aligned))
	for i, name := range aligned {
		index[name] = i
	}

	for _, row := range rows {
		var missing []string
		for name := range row {
			if _, ok := index[name]; !ok {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		for _, name := range missing {
			index[name] = len(aligned)
			aligned = append(aligned, name)
		}
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(aligned))
		for name, v := range row {
			out[index[name]] = v
		}
		values[i] = out
	}

	return aligned, values
}
