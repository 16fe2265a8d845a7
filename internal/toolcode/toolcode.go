// Package toolcode implements the 6-digit tool code scheme used as the
// canonical identity key for Hydromat tooling records.
//
// Code layout: digit 1 is the mounting position, digit 2 the tool type,
// digits 3-5 the zero-padded profile ID and digit 6 the set number.
package toolcode

import (
	"fmt"
	"strconv"
)

// Mounting positions on a spindle head.
const (
	PositionBottom = "Bottom"
	PositionTop    = "Top"
	PositionRight  = "Right"
	PositionLeft   = "Left"
)

// Tool types.
const (
	TypeStraight = "Straight"
	TypeProfile  = "Profile"
)

// CodeLength is the fixed length of every tool code.
const CodeLength = 6

var positionDigits = map[string]byte{
	PositionBottom: '1',
	PositionTop:    '2',
	PositionRight:  '3',
	PositionLeft:   '4',
}

var digitPositions = map[byte]string{
	'1': PositionBottom,
	'2': PositionTop,
	'3': PositionRight,
	'4': PositionLeft,
}

var typeDigits = map[string]byte{
	TypeStraight: '0',
	TypeProfile:  '1',
}

var digitTypes = map[byte]string{
	'0': TypeStraight,
	'1': TypeProfile,
}

// ValidationError reports a structurally invalid Generate parameter. The
// message includes the offending value and is meant to be shown to the
// operator as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Decoded is the structural identity carried by a tool code.
type Decoded struct {
	Position  string
	ToolType  string
	ProfileID int
	SetNumber int
}

// Generate encodes a tool's identity into its 6-digit code. The same inputs
// always produce the same code; callers rely on this to test for pre-existing
// codes before inserting.
func Generate(profileID int, position, toolType string, setNumber int) (string, error) {
	if profileID < 1 || profileID > 999 {
		return "", validationErrorf("profile ID must be 1-999, got %d", profileID)
	}
	posDigit, ok := positionDigits[position]
	if !ok {
		return "", validationErrorf("invalid position: %q", position)
	}
	typeDigit, ok := typeDigits[toolType]
	if !ok {
		return "", validationErrorf("invalid tool type: %q", toolType)
	}
	if setNumber < 1 || setNumber > 9 {
		return "", validationErrorf("set number must be 1-9, got %d", setNumber)
	}
	return fmt.Sprintf("%c%c%03d%d", posDigit, typeDigit, profileID, setNumber), nil
}

// Decode parses a tool code back into its identity. It returns nil for
// anything that is not a 6-character code with numeric profile and set
// digits; callers must treat nil as "not a code", never as a failure.
//
// Unknown position or type digits do not fail the decode: they fall back to
// Bottom and Profile respectively. The decoded profile ID and set number are
// not range-checked, so out-of-range values round-trip unchanged.
func Decode(code string) *Decoded {
	if len(code) != CodeLength {
		return nil
	}
	profileID, err := strconv.Atoi(code[2:5])
	if err != nil {
		return nil
	}
	setNumber, err := strconv.Atoi(code[5:6])
	if err != nil {
		return nil
	}
	position, ok := digitPositions[code[0]]
	if !ok {
		position = PositionBottom
	}
	toolType, ok := digitTypes[code[1]]
	if !ok {
		toolType = TypeProfile
	}
	return &Decoded{
		Position:  position,
		ToolType:  toolType,
		ProfileID: profileID,
		SetNumber: setNumber,
	}
}

// Validate reports whether code is an admissible tool code. It is the single
// gate used before a code is persisted or compared.
func Validate(code string) bool {
	return Decode(code) != nil
}

// SetPrefix returns the set-grouping key of a code: its first five
// characters (position, type and profile). Tools sharing a prefix form one
// set and share a single photo.
func SetPrefix(code string) string {
	if len(code) < CodeLength-1 {
		return code
	}
	return code[:CodeLength-1]
}
