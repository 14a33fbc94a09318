package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterDataset() Dataset {
	return Dataset{
		Headers: []string{"Student", "Status"},
		Rows: []map[string]string{
			{"Student": "Ana", "Status": "in"},
			{"Student": "Budi, Jr.", "Status": "pending"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,Status\nAna,in\n\"Budi, Jr.\",pending\n", string(out))

	withBOM, err := NewCSVExporter(true).Render(rosterDataset())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(withBOM), "\uFEFF"))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := rosterDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"Student": strings.Repeat("long name ", 20), "Status": "out"})
	}
	out, err := NewPDFExporter().Render(data, "Roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	data := Dataset{Headers: []string{"a", "b"}, Widths: []float64{3, 1}}
	assert.Equal(t, []float64{150, 50}, columnWidths(data, 200))

	data.Widths = []float64{1}
	assert.Equal(t, []float64{100, 100}, columnWidths(data, 200))
}
