package rebuild

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCSVSkipsHeader(t *testing.T) {
	input := strings.Join([]string{
		"date,open,high,low,close,volume",
		"2024-01-01,42000,43500,41800,43210.5,1234567.8",
		"2024-01-02,43210.5,44000,43000,43800,987654.3",
	}, "\n")

	rows, err := parsePriceCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-01-01", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, 43210.5, rows[0].Close)
	assert.Equal(t, 987654.3, rows[1].Volume)
}

func TestParsePriceCSVWithoutHeader(t *testing.T) {
	rows, err := parsePriceCSV(strings.NewReader("2024-01-01,1,2,0.5,1.5,100\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.5, rows[0].Close)
}

func TestParsePriceCSVRejectsBadRows(t *testing.T) {
	_, err := parsePriceCSV(strings.NewReader("2024-01-01,1,2,0.5,oops,100\n"))
	assert.Error(t, err)

	_, err = parsePriceCSV(strings.NewReader("2024-01-01,1,2,3\n"))
	assert.Error(t, err)

	// A date that fails to parse past the first line is an error, not a header.
	_, err = parsePriceCSV(strings.NewReader("2024-01-01,1,2,0.5,1.5,100\nnot-a-date,1,2,0.5,1.5,100\n"))
	assert.Error(t, err)
}
