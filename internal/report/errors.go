package report

import "errors"

// Sentinel kinds for report errors.
var (
	// ErrMailUnavailable means no mail capability is configured.
	ErrMailUnavailable = errors.New("mail services are not available")
	ErrSendFailed      = errors.New("send report failed")
)
