// Package heads holds the fixed head-to-position table of the Hydromat
// machine. The table is independent of the machining profile.
package heads

import (
	"fmt"

	"hydromat-tooling-backend/internal/toolcode"
)

// Head numbers run 1 through 10.
const (
	MinHead = 1
	MaxHead = 10
)

var requiredPositions = map[int]string{
	1:  toolcode.PositionBottom,
	2:  toolcode.PositionTop,
	3:  toolcode.PositionRight,
	4:  toolcode.PositionLeft,
	5:  toolcode.PositionRight,
	6:  toolcode.PositionLeft,
	7:  toolcode.PositionTop,
	8:  toolcode.PositionBottom,
	9:  toolcode.PositionTop,
	10: toolcode.PositionBottom,
}

// RequiredPosition returns the tool position a head expects. Head numbers
// outside 1..10 are a caller error.
func RequiredPosition(head int) (string, error) {
	position, ok := requiredPositions[head]
	if !ok {
		return "", fmt.Errorf("head number must be %d-%d, got %d", MinHead, MaxHead, head)
	}
	return position, nil
}

// Positions returns a copy of the full head-to-position table.
func Positions() map[int]string {
	out := make(map[int]string, len(requiredPositions))
	for head, position := range requiredPositions {
		out[head] = position
	}
	return out
}
