package logging

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/2beens/gymcoach/internal/workout"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// ErrorReport is what handlers receive for every reported error.
type ErrorReport struct {
	Code      workout.ErrorCode `json:"code"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]any    `json:"context,omitempty"`
	SessionID string            `json:"sessionId"`
}

type Handler func(report ErrorReport)

type HandlerID int

// ErrorReporter fans reports out to its handlers. It is created once per
// process and passed to whatever needs to report errors.
type ErrorReporter struct {
	mu        sync.RWMutex
	handlers  map[HandlerID]Handler
	nextID    HandlerID
	sessionID string
	now       func() time.Time
}

func NewErrorReporter() *ErrorReporter {
	return NewErrorReporterWithSession(workout.NewSessionID(), time.Now)
}

func NewErrorReporterWithSession(sessionID string, now func() time.Time) *ErrorReporter {
	return &ErrorReporter{
		handlers:  make(map[HandlerID]Handler),
		sessionID: sessionID,
		now:       now,
	}
}

func (r *ErrorReporter) SessionID() string {
	return r.sessionID
}

func (r *ErrorReporter) AddHandler(h Handler) HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = h
	return id
}

func (r *ErrorReporter) RemoveHandler(id HandlerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

func (r *ErrorReporter) HandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func (r *ErrorReporter) ClearHandlers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[HandlerID]Handler)
}

// Report builds a report for err and hands it to every handler, in the order
// they were added. A panicking handler does not stop the others.
func (r *ErrorReporter) Report(err error, fields map[string]any) {
	if err == nil {
		return
	}

	report := r.BuildReport(err, fields)

	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.handlers))
	for _, id := range slices.Sorted(maps.Keys(r.handlers)) {
		handlers = append(handlers, r.handlers[id])
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		safeHandle(h, report)
	}
}

// BuildReport merges the context carried by a coded error with fields;
// fields win on conflicting keys.
func (r *ErrorReporter) BuildReport(err error, fields map[string]any) ErrorReport {
	report := ErrorReport{
		Code:      workout.CodeOf(err),
		Message:   err.Error(),
		Timestamp: r.now(),
		SessionID: r.sessionID,
	}

	var coded *workout.Error
	if errors.As(err, &coded) && len(coded.Context) > 0 {
		report.Context = maps.Clone(coded.Context)
	}
	if len(fields) > 0 {
		if report.Context == nil {
			report.Context = make(map[string]any, len(fields))
		}
		maps.Copy(report.Context, fields)
	}

	return report
}

func safeHandle(h Handler, report ErrorReport) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("error report handler panicked: %v", rec)
		}
	}()
	h(report)
}

// LogrusHandler logs reports, recoverable ones as warnings.
func LogrusHandler(report ErrorReport) {
	entry := log.WithFields(log.Fields{
		"code":      report.Code,
		"sessionId": report.SessionID,
	})
	for k, v := range report.Context {
		entry = entry.WithField(k, v)
	}

	if (&workout.Error{Code: report.Code}).IsRecoverable() {
		entry.Warnf("[%s] %s", report.Code, report.Message)
		return
	}
	entry.Errorf("[%s] %s", report.Code, report.Message)
}

// SentryHandler sends reports to the given sentry hub.
func SentryHandler(hub *sentry.Hub) Handler {
	return func(report ErrorReport) {
		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = fmt.Sprintf("[%s] %s", report.Code, report.Message)
		event.Timestamp = report.Timestamp
		event.Tags["code"] = string(report.Code)
		event.Tags["session_id"] = report.SessionID
		for k, v := range report.Context {
			event.Extra[k] = v
		}
		hub.CaptureEvent(event)
	}
}
