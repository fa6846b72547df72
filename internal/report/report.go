// Package report composes the Match Report from the substitution log and
// hands it to a mail capability.
package report

import (
	"context"
	"strings"
)

// Subject is the fixed report subject line.
const Subject = "Match Report"

// Report is a composed message ready to send.
type Report struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Lines   []string `json:"lines"`
}

// Compose builds the report for the given log lines.
func Compose(lines []string) Report {
	return Report{
		Subject: Subject,
		Body:    strings.Join(lines, "\n"),
		Lines:   append([]string(nil), lines...),
	}
}

// Mailer delivers reports.
type Mailer interface {
	// Available reports whether Send can work at all.
	Available() bool
	Send(ctx context.Context, r Report) error
}

// Unavailable is a Mailer for hosts without mail configured.
type Unavailable struct{}

// Available always returns false.
func (Unavailable) Available() bool { return false }

// Send always fails with ErrMailUnavailable.
func (Unavailable) Send(context.Context, Report) error { return ErrMailUnavailable }
