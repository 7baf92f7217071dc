package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodePermissionDenied      ErrorCode = "PERMISSION_DENIED"
	CodeMotionDetectionFailed ErrorCode = "MOTION_DETECTION_FAILED"
	CodePhotoCaptureFailed    ErrorCode = "PHOTO_CAPTURE_FAILED"
	CodeDataSaveFailed        ErrorCode = "DATA_SAVE_FAILED"
	CodeDataLoadFailed        ErrorCode = "DATA_LOAD_FAILED"
	CodeDataCorruption        ErrorCode = "DATA_CORRUPTION"
	CodeInvalidExerciseData   ErrorCode = "INVALID_EXERCISE_DATA"
	CodeInvalidUserData       ErrorCode = "INVALID_USER_DATA"
	CodeInvalidWorkoutState   ErrorCode = "INVALID_WORKOUT_STATE"
	CodeWorkoutStartFailed    ErrorCode = "WORKOUT_START_FAILED"
	CodeWorkoutEndFailed      ErrorCode = "WORKOUT_END_FAILED"
	CodeSetCompletionFailed   ErrorCode = "SET_COMPLETION_FAILED"
	CodeNetworkError          ErrorCode = "NETWORK_ERROR"
	CodeSyncFailed            ErrorCode = "SYNC_FAILED"
	CodeUnknown               ErrorCode = "UNKNOWN_ERROR"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinels for errors.Is checks. Any *Error matches the sentinel with the same code.
var (
	ErrMotionDetectionFailed = &Error{Code: CodeMotionDetectionFailed}
	ErrDataSaveFailed        = &Error{Code: CodeDataSaveFailed}
	ErrDataLoadFailed        = &Error{Code: CodeDataLoadFailed}
	ErrDataCorruption        = &Error{Code: CodeDataCorruption}
	ErrInvalidExerciseData   = &Error{Code: CodeInvalidExerciseData}
	ErrInvalidUserData       = &Error{Code: CodeInvalidUserData}
	ErrInvalidWorkoutState   = &Error{Code: CodeInvalidWorkoutState}
	ErrWorkoutStartFailed    = &Error{Code: CodeWorkoutStartFailed}
	ErrWorkoutEndFailed      = &Error{Code: CodeWorkoutEndFailed}
	ErrSetCompletionFailed   = &Error{Code: CodeSetCompletionFailed}
)

// Error is a coded domain error with optional context and cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

func NewError(code ErrorCode, message string, context map[string]any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// WrapError creates a coded error caused by err.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) ErrorCode() string {
	return string(e.Code)
}

// FullMessage renders the code, message and sorted context entries.
func (e *Error) FullMessage() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Error())
	if len(e.Context) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(e.Context[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return msg + " (Context: " + strings.Join(parts, ", ") + ")"
}

// IsRecoverable reports whether the user can simply retry or carry on.
func (e *Error) IsRecoverable() bool {
	switch e.Code {
	case CodeMotionDetectionFailed,
		CodePhotoCaptureFailed,
		CodeDataSaveFailed,
		CodeNetworkError:
		return true
	default:
		return false
	}
}

func (e *Error) RequiresUserAction() bool {
	switch e.Code {
	case CodePermissionDenied,
		CodeInvalidExerciseData,
		CodeInvalidUserData:
		return true
	default:
		return false
	}
}

// CodeOf returns the code of the first coded error in err's chain,
// or CodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return ErrorCode(coded.ErrorCode())
	}
	return CodeUnknown
}
