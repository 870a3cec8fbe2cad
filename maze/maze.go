// Package maze generates the race mazes. Generation is deterministic in the
// seed so the server only ever sends (seed, w, h) over the wire and every
// client derives an identical wall layout locally.
package maze

// Cell values in Maze.Grid.
const (
	Open = 0
	Wall = 1
)

// The carve origin. The outer border always remains wall, so (1,1) is the
// first interior cell.
const (
	StartX = 1
	StartY = 1
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Maze struct {
	Width  int
	Height int
	Grid   [][]int // Grid[y][x], row-major
	Start  Point
	Exit   Point
}

// mulberry32 is a 32-bit state PRNG returning floats in [0,1). The constants
// match the generator the browser client runs, so both sides draw the same
// pseudo-random sequence for a given seed.
func mulberry32(seed int32) func() float64 {
	state := uint32(seed)
	return func() float64 {
		state += 0x6D2B79F5
		t := (state ^ (state >> 15)) * (state | 1)
		t = (t + (t^(t>>7))*(t|61)) ^ t
		return float64(t^(t>>14)) / 4294967296
	}
}

func shuffle(a [][2]int, rnd func() float64) {
	for i := len(a) - 1; i > 0; i-- {
		j := int(rnd() * float64(i+1))
		a[i], a[j] = a[j], a[i]
	}
}

// Generate carves a perfect maze with randomized depth-first backtracking
// from (1,1), stepping two cells at a time and opening the wall in between.
// Identical (width, height, seed) always produce an identical grid.
func Generate(width, height int, seed int32) *Maze {
	rnd := mulberry32(seed)

	grid := make([][]int, height)
	for y := range grid {
		grid[y] = make([]int, width)
		for x := range grid[y] {
			grid[y][x] = Wall
		}
	}

	grid[StartY][StartX] = Open

	var carve func(x, y int)
	carve = func(x, y int) {
		dirs := [][2]int{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}
		shuffle(dirs, rnd)

		for _, d := range dirs {
			nx, ny := x+d[0], y+d[1]
			// two-cells-ahead target must be uncarved and strictly inside
			// the border
			if ny > 0 && ny < height-1 && nx > 0 && nx < width-1 && grid[ny][nx] == Wall {
				grid[y+d[1]/2][x+d[0]/2] = Open
				grid[ny][nx] = Open
				carve(nx, ny)
			}
		}
	}

	carve(StartX, StartY)

	return &Maze{
		Width:  width,
		Height: height,
		Grid:   grid,
		Start:  Point{X: StartX, Y: StartY},
		Exit:   Point{X: width - 2, Y: height - 2},
	}
}

// CanMove reports whether (x, y) is an open cell.
func (m *Maze) CanMove(x, y int) bool {
	if y < 0 || y >= m.Height || x < 0 || x >= m.Width {
		return false
	}
	return m.Grid[y][x] == Open
}
