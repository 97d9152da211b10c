package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBF Roll Number ,Name,Email\nA1, Ana ,ana@example.com\n\n,,\nA2,Budi\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"Roll Number": "A1", "Name": "Ana", "Email": "ana@example.com"}, rows[0])
	assert.Equal(t, "A2", rows[1]["Roll Number"])
	_, hasEmail := rows[1]["Email"]
	assert.False(t, hasEmail)
}

func TestReadCSVEmpty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.Error(t, err)
}
