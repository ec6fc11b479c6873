package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Shading from empty to crowded cells.
var densityRamp = []rune(" .:-=+*#%@")

// ScatterToASCII renders positions inside a size×size box as a framed
// character grid. Each cell is shaded by how many particles it holds;
// particles outside the box are dropped.
func ScatterToASCII(positions []r2.Vec, size float64, width, height int) string {
	if width <= 0 || height <= 0 || size <= 0 {
		return ""
	}

	counts := make([][]int, height)
	for i := range counts {
		counts[i] = make([]int, width)
	}

	maxCount := 0
	for _, p := range positions {
		if p.X < 0 || p.X > size || p.Y < 0 || p.Y > size {
			continue
		}
		col := int(p.X / size * float64(width))
		row := height - 1 - int(p.Y/size*float64(height))
		if col >= width {
			col = width - 1
		}
		if row < 0 {
			row = 0
		}
		counts[row][col]++
		if counts[row][col] > maxCount {
			maxCount = counts[row][col]
		}
	}

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
	for _, row := range counts {
		b.WriteString("│")
		for _, c := range row {
			b.WriteRune(shade(c, maxCount))
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", width) + "┘\n")
	fmt.Fprintf(&b, " 0%s%.0f\n", strings.Repeat(" ", max(width-2, 0)), size)
	return b.String()
}

func shade(count, maxCount int) rune {
	if count == 0 || maxCount == 0 {
		return densityRamp[0]
	}
	idx := 1 + (count-1)*(len(densityRamp)-2)/max(maxCount-1, 1)
	if idx >= len(densityRamp) {
		idx = len(densityRamp) - 1
	}
	return densityRamp[idx]
}
