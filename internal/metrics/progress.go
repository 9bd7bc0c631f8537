package metrics

import "log"

// Progress receives current/maximum counts from long-running loops.
// Implementations are best effort and must not affect training.
type Progress interface {
	Set(current, max int)
}

// NopProgress discards updates.
type NopProgress struct{}

func (NopProgress) Set(int, int) {}

// LogProgress writes each update as a log line.
type LogProgress struct {
	Logger *log.Logger
	Label  string
}

func (p LogProgress) Set(current, max int) {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("%s progress=%d/%d", p.Label, current, max)
}

// OrNop returns p, or a NopProgress when p is nil.
func OrNop(p Progress) Progress {
	if p == nil {
		return NopProgress{}
	}
	return p
}
