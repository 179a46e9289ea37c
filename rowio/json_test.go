package rowio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmorozov/compgraph"
)

func TestJSONLineParsesValidObject(t *testing.T) {
	row, err := JSONLine(`{"doc_id": 1, "text": "hello"}`)
	require.NoError(t, err)
	assert.Equal(t, compgraph.Row{"doc_id": float64(1), "text": "hello"}, row)
}

func TestJSONLineRepairsTrailingComma(t *testing.T) {
	row, err := JSONLine(`{"doc_id": 1, "text": "hello",}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", row["text"])
}

func TestJSONLineRepairsUnquotedKeys(t *testing.T) {
	row, err := JSONLine(`{doc_id: 1, text: "hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", row["text"])
}

func TestJSONLineRejectsUnrecoverableGarbage(t *testing.T) {
	_, err := JSONLine(`not json at all {{{`)
	assert.Error(t, err)
}

func TestJSONLineParserReturnsCompatibleParser(t *testing.T) {
	parser := JSONLineParser()
	g := compgraph.FromFile("/does/not/exist.jsonl", parser)
	out := g.Run(nil)
	_, ok, err := out.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, compgraph.ErrFileOpen)
}
