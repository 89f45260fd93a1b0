package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := &CSVExporter{}
	out, err := exporter.Render(Table{
		Columns: []Column{{Key: "name", Title: "Name"}, {Key: "status", Title: "Status"}, {Key: "method"}},
		Rows: []map[string]string{
			{"name": "Ada Lovelace", "status": "PRESENT", "method": "GEOFENCE"},
			{"name": "Grace, Hopper", "status": "LATE"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Status,method", lines[0])
	assert.Equal(t, "Ada Lovelace,PRESENT,GEOFENCE", lines[1])
	assert.Equal(t, `"Grace, Hopper",LATE,`, lines[2])
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter().Render(Table{Columns: []Column{{Key: "a", Title: "A"}}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "\xEF\xBB\xBFA"))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}
