// Package rowio parses the text lines a file source reads into Rows.
package rowio

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mmorozov/compgraph"
)

// JSONLine parses line as a single JSON object into a Row. If line isn't
// valid JSON outright, it is run through jsonrepair before giving up: input
// files hand-edited or produced by lenient upstream tools routinely carry
// trailing commas, unquoted keys or similar, and a single retry after repair
// recovers most of them without masking genuinely malformed lines.
func JSONLine(line string) (compgraph.Row, error) {
	var row compgraph.Row
	if err := json.Unmarshal([]byte(line), &row); err == nil {
		return row, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(line)
	if repairErr != nil {
		return nil, fmt.Errorf("invalid json and repair failed: %v", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &row); err != nil {
		return nil, fmt.Errorf("invalid json after repair: %w", err)
	}
	return row, nil
}

// JSONLineParser returns JSONLine as a parser function suitable for
// Graph.FromFile.
func JSONLineParser() func(string) (compgraph.Row, error) {
	return JSONLine
}
