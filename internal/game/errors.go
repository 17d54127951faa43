package game

import (
	"errors"
	"strconv"
)

// Code identifies a class of rejected command. Codes are sent to clients as
// is.
type Code string

// Move validation.
const (
	CodeOutOfBounds               Code = "OUT_OF_BOUNDS"
	CodeNotYourTurn               Code = "NOT_YOUR_TURN"
	CodeNotYourPiece              Code = "NOT_YOUR_PIECE"
	CodeDestinationOccupiedBySelf Code = "DESTINATION_OCCUPIED_BY_SELF"
	CodeEmptySource               Code = "EMPTY_SOURCE"
	CodeViolatesRule              Code = "VIOLATES_RULE"
)

// Session guards.
const (
	CodeGameNotStarted Code = "GAME_NOT_STARTED"
	CodeUnknownPlayer  Code = "UNKNOWN_PLAYER"
	CodeGameFinished   Code = "GAME_FINISHED"
)

// Join.
const (
	CodeGameFull           Code = "GAME_FULL"
	CodeNameTaken          Code = "NAME_TAKEN"
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeInvalidName        Code = "INVALID_NAME"
)

// Error is a rejected command. Two errors match under errors.Is when their
// codes are equal, so the sentinels below can be used as targets.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// CodeOf returns the code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Sentinels for errors.Is.
var (
	ErrOutOfBounds               = &Error{Code: CodeOutOfBounds, Message: "out of bounds"}
	ErrNotYourTurn               = &Error{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrNotYourPiece              = &Error{Code: CodeNotYourPiece, Message: "not your piece"}
	ErrDestinationOccupiedBySelf = &Error{Code: CodeDestinationOccupiedBySelf, Message: "destination occupied by own piece"}
	ErrEmptySource               = &Error{Code: CodeEmptySource, Message: "no piece on source square"}
	ErrViolatesRule              = &Error{Code: CodeViolatesRule, Message: "violates rule"}

	ErrGameNotStarted = &Error{Code: CodeGameNotStarted, Message: "game not started"}
	ErrUnknownPlayer  = &Error{Code: CodeUnknownPlayer, Message: "unknown player"}
	ErrGameFinished   = &Error{Code: CodeGameFinished, Message: "game finished"}

	ErrGameFull           = &Error{Code: CodeGameFull, Message: "game is full"}
	ErrNameTaken          = &Error{Code: CodeNameTaken, Message: "name already taken"}
	ErrGameAlreadyStarted = &Error{Code: CodeGameAlreadyStarted, Message: "game already started"}
	ErrInvalidName        = &Error{Code: CodeInvalidName, Message: "name required"}
)

func squareError(code Code, msg string, x, y int) *Error {
	return &Error{
		Code:     code,
		Message:  msg + " at (" + strconv.Itoa(x) + "," + strconv.Itoa(y) + ")",
		Metadata: map[string]string{"x": strconv.Itoa(x), "y": strconv.Itoa(y)},
	}
}

func OutOfBounds(x, y int) *Error {
	return squareError(CodeOutOfBounds, "out of bounds", x, y)
}

func EmptySource(x, y int) *Error {
	return squareError(CodeEmptySource, "no piece", x, y)
}

func DestinationOccupiedBySelf(x, y int) *Error {
	return squareError(CodeDestinationOccupiedBySelf, "own piece", x, y)
}

func NotYourTurn(current PlayerID) *Error {
	return &Error{
		Code:     CodeNotYourTurn,
		Message:  "not your turn",
		Metadata: map[string]string{"current_player": string(current)},
	}
}

func NotYourPiece(owner PlayerID) *Error {
	return &Error{
		Code:     CodeNotYourPiece,
		Message:  "not your piece",
		Metadata: map[string]string{"owner": string(owner)},
	}
}

// ViolatesRule rejects a command that breaks a movement or voting rule.
func ViolatesRule(reason string) *Error {
	return &Error{
		Code:     CodeViolatesRule,
		Message:  reason,
		Metadata: map[string]string{"reason": reason},
	}
}
