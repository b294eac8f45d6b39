package room

import (
	"errors"
	"strings"
)

const (
	// BoardSize is the number of rows and columns on the board.
	BoardSize = 15

	// WinLength is the number of aligned stones that wins the game.
	WinLength = 5
)

var (
	ErrOutOfBoard = errors.New("position is outside the board")
	ErrOccupied   = errors.New("position occupied")
)

// Stone is the state of a single board cell
type Stone int

const (
	Empty Stone = iota
	White
	Black
)

func (s Stone) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "empty"
	}
}

// Board is a 15x15 grid. Cells are write-once.
type Board struct {
	cells [BoardSize][BoardSize]Stone
	moves int
}

// axes are the four scan directions: horizontal, vertical and both diagonals.
var axes = [4][2]int{
	{0, 1},
	{1, 0},
	{-1, 1},
	{1, 1},
}

// InBounds reports whether row and col address a cell on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// At returns the stone at the given cell, or Empty outside the board.
func (b *Board) At(row, col int) Stone {
	if !InBounds(row, col) {
		return Empty
	}
	return b.cells[row][col]
}

// Place puts a stone on an empty cell.
func (b *Board) Place(row, col int, stone Stone) error {
	if !InBounds(row, col) {
		return ErrOutOfBoard
	}
	if b.cells[row][col] != Empty {
		return ErrOccupied
	}
	b.cells[row][col] = stone
	b.moves++
	return nil
}

// Moves returns the number of stones on the board.
func (b *Board) Moves() int {
	return b.moves
}

// IsFive reports whether the stone at (row, col) is part of a line of at
// least WinLength stones of its color along any axis.
func (b *Board) IsFive(row, col int) bool {
	stone := b.At(row, col)
	if stone == Empty {
		return false
	}
	for _, axis := range axes {
		count := 1 + b.run(row, col, axis[0], axis[1], stone) + b.run(row, col, -axis[0], -axis[1], stone)
		if count >= WinLength {
			return true
		}
	}
	return false
}

// run counts contiguous stones of the given color starting next to (row, col)
// and moving by (dr, dc).
func (b *Board) run(row, col, dr, dc int, stone Stone) int {
	n := 0
	for r, c := row+dr, col+dc; InBounds(r, c) && b.cells[r][c] == stone; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// String renders the board with '.' for empty cells, 'O' for white and 'X' for black.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < BoardSize; c++ {
		sb.WriteByte(' ')
		sb.WriteByte("0123456789abcde"[c])
	}
	sb.WriteByte('\n')
	for r := 0; r < BoardSize; r++ {
		sb.WriteString(string("0123456789abcde"[r]))
		sb.WriteString("  ")
		for c := 0; c < BoardSize; c++ {
			sb.WriteByte(' ')
			switch b.cells[r][c] {
			case White:
				sb.WriteByte('O')
			case Black:
				sb.WriteByte('X')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
