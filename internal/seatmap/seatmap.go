// Package seatmap derives seat designators from a flight's seat count.
// The layout is not stored: seats are numbered deterministically six
// across (columns A-F), row 1 first, so seat i of n is always the same.
package seatmap

import (
	"fmt"
	"strconv"
)

const SeatsPerRow = 6

var columns = [SeatsPerRow]byte{'A', 'B', 'C', 'D', 'E', 'F'}

// Designator returns the seat label for ordinal i (1-based).
func Designator(i int) string {
	row := (i-1)/SeatsPerRow + 1
	col := (i - 1) % SeatsPerRow
	return fmt.Sprintf("%d%c", row, columns[col])
}

// Enumerate returns all seat labels for a flight, in cabin order.
func Enumerate(totalSeats int) []string {
	if totalSeats <= 0 {
		return nil
	}
	seats := make([]string, totalSeats)
	for i := 1; i <= totalSeats; i++ {
		seats[i-1] = Designator(i)
	}
	return seats
}

// Parse splits a designator like "12C" into its ordinal within the
// cabin, or reports false for anything that is not a well-formed seat.
func Parse(seat string) (int, bool) {
	if len(seat) < 2 {
		return 0, false
	}
	colChar := seat[len(seat)-1]
	col := -1
	for i, c := range columns {
		if colChar == c {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, false
	}
	row, err := strconv.Atoi(seat[:len(seat)-1])
	if err != nil || row < 1 {
		return 0, false
	}
	return (row-1)*SeatsPerRow + col + 1, true
}

// Valid reports whether seat belongs to a flight with totalSeats seats.
func Valid(seat string, totalSeats int) bool {
	ordinal, ok := Parse(seat)
	return ok && ordinal <= totalSeats
}
