package geo

import (
	"github.com/twpayne/go-polyline"
)

// PolylineFromCells encodes a (row, col) path with the google polyline algorithm,
// row in the latitude slot and col in the longitude slot.
func PolylineFromCells(cells [][2]int) string {
	coords := make([][]float64, len(cells))
	for i, c := range cells {
		coords[i] = []float64{float64(c[0]), float64(c[1])}
	}
	return string(polyline.EncodeCoords(coords))
}

// CellsFromPolyline inverse of PolylineFromCells.
func CellsFromPolyline(encoded string) ([][2]int, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	cells := make([][2]int, len(coords))
	for i, c := range coords {
		cells[i] = [2]int{roundInt(c[0]), roundInt(c[1])}
	}
	return cells, nil
}

func roundInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
