package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolylineFromCells(t *testing.T) {
	testCases := []struct {
		name  string
		cells [][2]int
	}{
		{name: "single cell", cells: [][2]int{{0, 0}}},
		{name: "straight row", cells: [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}}},
		{name: "staircase", cells: [][2]int{{2, 2}, {2, 3}, {3, 3}, {4, 3}, {4, 4}}},
		{name: "large coordinates", cells: [][2]int{{499, 0}, {498, 0}, {498, 1}}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			encoded := PolylineFromCells(tt.cells)
			require.NotEmpty(t, encoded)

			decoded, err := CellsFromPolyline(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.cells, decoded)
		})
	}
}

func TestPolylineEmpty(t *testing.T) {
	assert.Empty(t, PolylineFromCells(nil))

	decoded, err := CellsFromPolyline("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
