package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderFollowsHeaderOrder(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Reference", "Payer", "Amount"},
		Rows: []map[string]string{
			{"Amount": "5000", "Reference": "FMS-1", "Payer": "Ada"},
			{"Reference": "FMS-2", "Payer": "Femi"},
		},
	})
	require.NoError(t, err)

	// The second row has no Amount, so its cell stays empty.
	assert.Equal(t, "Reference,Payer,Amount\nFMS-1,Ada,5000\nFMS-2,Femi,\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{Rows: []map[string]string{{"Payer": "Ada"}}})
	assert.Error(t, err)
}
