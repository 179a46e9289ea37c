// Package recipes assembles compgraph.Graph pipelines for a handful of
// complete, end-to-end computations: word counting, an inverted index
// ranked by tf-idf, pointwise mutual information, and average road speed
// from a pair of travel-log inputs.
package recipes

import (
	"math"

	"github.com/mmorozov/compgraph"
)

// WordCount counts occurrences of each distinct word in textColumn across
// every row read from inputName, emitting {textColumn, countColumn} sorted
// ascending by (count, word).
func WordCount(inputName, textColumn, countColumn string) *compgraph.Graph {
	return compgraph.FromIter(inputName).
		Map(compgraph.FilterPunctuation{Column: textColumn}).
		Map(compgraph.LowerCase{Column: textColumn}).
		Map(compgraph.Split{Column: textColumn}).
		Sort([]string{textColumn}).
		Reduce(compgraph.Count{Out: countColumn}, []string{textColumn}).
		Sort([]string{countColumn, textColumn})
}

// InvertedIndex computes, for every (document, word) pair read from
// inputName, the top-3 documents per word ranked by tf-idf, emitting
// {docColumn, textColumn, resultColumn}.
func InvertedIndex(inputName, docColumn, textColumn, resultColumn string) *compgraph.Graph {
	const (
		count    = "count"
		docCount = "doc_count"
		idf      = "idf"
		tf       = "tf"
	)

	read := compgraph.FromIter(inputName)

	preprocess := read.
		Map(compgraph.FilterPunctuation{Column: textColumn}).
		Map(compgraph.LowerCase{Column: textColumn})
	splitWords := preprocess.Map(compgraph.Split{Column: textColumn})

	countDocs := read.
		Sort([]string{docColumn}).
		Reduce(compgraph.First{}, []string{docColumn}).
		Reduce(compgraph.Count{Out: count}, nil)

	countIDF := splitWords.
		Sort([]string{docColumn, textColumn}).
		Reduce(compgraph.First{}, []string{docColumn, textColumn}).
		Sort([]string{textColumn}).
		Reduce(compgraph.Count{Out: docCount}, []string{textColumn}).
		Join(compgraph.InnerJoiner{}, countDocs, nil).
		Map(compgraph.Apply{
			F: func(row compgraph.Row) any {
				return math.Log(asFloat(row[count]) / asFloat(row[docCount]))
			},
			Out: idf,
		})

	tfGraph := splitWords.
		Sort([]string{docColumn}).
		Reduce(compgraph.TermFrequency{WordsColumn: textColumn, Out: tf}, []string{docColumn})

	return tfGraph.
		Sort([]string{textColumn}).
		Join(compgraph.InnerJoiner{}, countIDF.Sort([]string{textColumn}), []string{textColumn}).
		Map(compgraph.Product{Columns: []string{idf, tf}, Out: resultColumn}).
		Map(compgraph.Project{Columns: []string{docColumn, textColumn, resultColumn}}).
		Reduce(compgraph.TopN{Column: resultColumn, N: 3}, []string{textColumn})
}

// PMI computes, for every document read from inputName, the top-10 words
// (longer than 4 characters, occurring more than once in that document)
// ranked by pointwise mutual information against the whole corpus, emitting
// {docColumn, textColumn, resultColumn}.
func PMI(inputName, docColumn, textColumn, resultColumn string) *compgraph.Graph {
	const (
		docTF   = "doc_tf"
		totalTF = "total_tf"
	)

	split := compgraph.FromIter(inputName).
		Map(compgraph.FilterPunctuation{Column: textColumn}).
		Map(compgraph.LowerCase{Column: textColumn}).
		Map(compgraph.Split{Column: textColumn}).
		Map(compgraph.Filter{Condition: func(row compgraph.Row) bool {
			word, _ := row[textColumn].(string)
			return len(word) > 4
		}})

	freq := split.
		Sort([]string{docColumn, textColumn}).
		Reduce(compgraph.Count{Out: docTF}, []string{docColumn, textColumn}).
		Map(compgraph.Filter{Condition: func(row compgraph.Row) bool {
			n, _ := row[docTF].(int64)
			return n > 1
		}})

	filtered := split.
		Sort([]string{docColumn, textColumn}).
		Join(compgraph.InnerJoiner{}, freq, []string{docColumn, textColumn})

	docTFGraph := filtered.Reduce(compgraph.TermFrequency{WordsColumn: textColumn, Out: docTF}, []string{docColumn})
	totalTFGraph := filtered.Reduce(compgraph.TermFrequency{WordsColumn: textColumn, Out: totalTF}, nil)

	return docTFGraph.
		Sort([]string{textColumn}).
		Join(compgraph.InnerJoiner{}, totalTFGraph.Sort([]string{textColumn}), []string{textColumn}).
		Map(compgraph.Apply{
			F: func(row compgraph.Row) any {
				return math.Log(asFloat(row[docTF]) / asFloat(row[totalTF]))
			},
			Out: resultColumn,
		}).
		Map(compgraph.Project{Columns: []string{docColumn, textColumn, resultColumn}}).
		Sort([]string{docColumn}).
		Reduce(compgraph.TopN{Column: resultColumn, N: 10}, []string{docColumn})
}

// YandexMaps combines a travel-time log (timeInput) and a road-segment
// length log (lengthInput), keyed by edgeColumn, into average speed per
// weekday/hour bucket, emitting {weekdayColumn, hourColumn, speedColumn}.
func YandexMaps(timeInput, lengthInput, enterColumn, leaveColumn, edgeColumn, startColumn, endColumn, weekdayColumn, hourColumn, speedColumn string) *compgraph.Graph {
	const (
		distanceColumn = "distance"
		durationColumn = "duration"
	)

	distance := compgraph.FromIter(lengthInput).
		Map(compgraph.HaversineDistance{Id: edgeColumn, Start: startColumn, End: endColumn, Out: distanceColumn}).
		Map(compgraph.Project{Columns: []string{edgeColumn, distanceColumn}}).
		Sort([]string{edgeColumn})

	duration := compgraph.FromIter(timeInput).
		Map(compgraph.TravelTimeParts{
			Enter:       enterColumn,
			Leave:       leaveColumn,
			WeekdayOut:  weekdayColumn,
			HourOut:     hourColumn,
			DurationOut: durationColumn,
		}).
		Map(compgraph.Project{Columns: []string{edgeColumn, weekdayColumn, hourColumn, durationColumn}}).
		Sort([]string{edgeColumn})

	joint := duration.
		Join(compgraph.InnerJoiner{}, distance, []string{edgeColumn}).
		Sort([]string{weekdayColumn, hourColumn})

	durationTotals := joint.
		Reduce(compgraph.Sum{Column: durationColumn}, []string{weekdayColumn, hourColumn}).
		Sort([]string{weekdayColumn, hourColumn})
	distanceTotals := joint.
		Reduce(compgraph.Sum{Column: distanceColumn}, []string{weekdayColumn, hourColumn}).
		Sort([]string{weekdayColumn, hourColumn})

	return durationTotals.
		Join(compgraph.InnerJoiner{}, distanceTotals, []string{weekdayColumn, hourColumn}).
		Map(compgraph.Apply{
			F: func(row compgraph.Row) any {
				return asFloat(row[distanceColumn]) / asFloat(row[durationColumn])
			},
			Out: speedColumn,
		}).
		Map(compgraph.Project{Columns: []string{weekdayColumn, hourColumn, speedColumn}})
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
