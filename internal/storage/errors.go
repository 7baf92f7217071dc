package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymcoach/internal/workout"
)

var ErrKeyNotFound = errors.New("key not found")

type Op string

const (
	OpRead        Op = "READ"
	OpWrite       Op = "WRITE"
	OpClear       Op = "CLEAR"
	OpDeserialize Op = "DESERIALIZE"
)

// StorageError wraps a failed storage operation on a key.
type StorageError struct {
	Op  Op
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s [%s]: %s", strings.ToLower(string(e.Op)), e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Code maps the operation to the domain error code.
func (e *StorageError) Code() workout.ErrorCode {
	switch e.Op {
	case OpWrite:
		return workout.CodeDataSaveFailed
	case OpRead, OpClear:
		return workout.CodeDataLoadFailed
	case OpDeserialize:
		return workout.CodeDataCorruption
	default:
		return workout.CodeUnknown
	}
}

func (e *StorageError) ErrorCode() string {
	return string(e.Code())
}

// Is makes a StorageError match the workout sentinel with the same code,
// e.g. errors.Is(err, workout.ErrDataCorruption).
func (e *StorageError) Is(target error) bool {
	var t *workout.Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code()
}

func (e *StorageError) FullMessage() string {
	return fmt.Sprintf("Storage %s operation failed for key %q: %s", e.Op, e.Key, e.Err)
}
