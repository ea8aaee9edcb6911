package intake

import "errors"

var (
	// ErrValidation is returned by Submit when a slot is empty.
	ErrValidation = errors.New("both files are required")
	// ErrSubmissionInFlight is returned by Submit while a submission runs.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrUnknownRole is returned for slot names other than the two roles.
	ErrUnknownRole = errors.New("unknown file slot")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("intake controller closed")
)

// User-facing notices.
const (
	NoticeBothFilesRequired = "Please upload both DAT and INP files"
	NoticeSubmissionFailed  = "Error processing files. Please try again."
)
