package backend

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes backend failures.
type ErrorCode string

const (
	// CodeNotFound indicates the referenced session, card or group does not
	// exist (or no longer exists).
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeDuplicateVote indicates the user already voted on the card.
	CodeDuplicateVote ErrorCode = "DUPLICATE_VOTE"

	// CodeVoteNotFound indicates there is no vote to remove.
	CodeVoteNotFound ErrorCode = "VOTE_NOT_FOUND"

	// CodeInvalidArgument indicates a malformed request.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeUnavailable indicates the backend could not be reached.
	CodeUnavailable ErrorCode = "UNAVAILABLE"
)

// Error is a structured backend failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the backend operation that failed, e.g. "addVote".
	Op string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error.
func Errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsNotFound returns true if the error is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsDuplicateVote returns true if the error is a duplicate-vote rejection.
func IsDuplicateVote(err error) bool {
	return hasCode(err, CodeDuplicateVote)
}

// IsVoteNotFound returns true if the error is a missing-vote rejection.
func IsVoteNotFound(err error) bool {
	return hasCode(err, CodeVoteNotFound)
}

// IsExpected returns true for rejections that optimistic callers treat as
// self-correcting: duplicate vote, missing vote and not found.
func IsExpected(err error) bool {
	return IsDuplicateVote(err) || IsVoteNotFound(err) || IsNotFound(err)
}
