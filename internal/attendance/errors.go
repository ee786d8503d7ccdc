package attendance

import (
	"errors"
	"fmt"
)

// MalformedEncodingError reports a probe or stored encoding with the wrong
// shape. The caller should retry the capture; nothing is written.
type MalformedEncodingError struct {
	Want int
	Got  int
}

func (e *MalformedEncodingError) Error() string {
	if e.Want == 0 {
		return "malformed face encoding: empty vector"
	}
	return fmt.Sprintf("malformed face encoding: expected %d dimensions, got %d", e.Want, e.Got)
}

// NoFaceMatchError reports that every roster candidate was at or beyond the
// acceptance threshold (or that no candidate had an encoding at all).
type NoFaceMatchError struct {
	BestDistance float64
	Candidates   int
}

func (e *NoFaceMatchError) Error() string {
	if e.Candidates == 0 {
		return "no face match: roster has no registered encodings"
	}
	return fmt.Sprintf("no face match: best distance %.4f over %d candidates", e.BestDistance, e.Candidates)
}

// NoExamScheduledError reports that a student matched but their course has no
// exam on the reference date. Expected outcome, not a system failure.
type NoExamScheduledError struct {
	Course string
	Date   string
}

func (e *NoExamScheduledError) Error() string {
	return fmt.Sprintf("no exam scheduled today for %s (%s)", e.Course, e.Date)
}

// IsMalformedEncoding reports whether err is a MalformedEncodingError.
func IsMalformedEncoding(err error) bool {
	var target *MalformedEncodingError
	return errors.As(err, &target)
}

// IsNoFaceMatch reports whether err is a NoFaceMatchError.
func IsNoFaceMatch(err error) bool {
	var target *NoFaceMatchError
	return errors.As(err, &target)
}

// IsNoExamScheduled reports whether err is a NoExamScheduledError.
func IsNoExamScheduled(err error) bool {
	var target *NoExamScheduledError
	return errors.As(err, &target)
}
