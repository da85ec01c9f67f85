package sandpile

import (
	"fmt"

	"sandpile/internal/core"
)

// Clusters returns the size of every maximal 4-connected region of cells
// whose mask value is true (false when invert is set). The sizes sum to the
// number of matching cells. The flood fill uses an explicit stack so a
// single lattice-spanning region cannot exhaust the goroutine stack.
func Clusters(mask []bool, side int, invert bool) []int {
	grid := core.NewSquare(side)
	total := grid.Len()
	if len(mask) != total {
		panic(fmt.Sprintf("sandpile: mask has %d cells, want %d", len(mask), total))
	}

	want := !invert
	visited := make([]bool, total)
	stack := make([]int, 0, 64)
	var nbuf [4]int
	var sizes []int

	for start := 0; start < total; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		if mask[start] != want {
			continue
		}

		size := 0
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, n := range grid.Neighbors(i, nbuf[:0]) {
				if visited[n] || mask[n] != want {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
		sizes = append(sizes, size)
	}
	return sizes
}

// Clusters returns the cluster sizes of the current activation mask.
func (l *Lattice) Clusters(invert bool) []int {
	return Clusters(l.active, l.Side(), invert)
}
