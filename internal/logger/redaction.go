package logger

import (
	"fmt"
	"io"
	"regexp"
)

var redacted = []byte("[REDACTED]")

// defaultPatterns match secrets that tools commonly receive as arguments or
// echo on stderr
var defaultPatterns = []string{
	// LLM provider keys
	`sk-ant-[a-zA-Z0-9_-]{20,}`,
	`sk-[a-zA-Z0-9_-]{20,}`,

	// Bearer tokens
	`Bearer\s+[a-zA-Z0-9._-]+`,

	// GitHub tokens
	`gh[pousr]_[a-zA-Z0-9]{36,}`,

	// AWS access keys
	`AKIA[0-9A-Z]{16}`,

	// key=value style credentials
	`(?i)(password|passwd|pwd|secret)["\s:=]+[^\s"]+`,
	`(?i)(api[_-]?key|token)["\s:=]+[a-zA-Z0-9._-]{20,}`,
}

// Redactor replaces secrets in log output
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the default patterns followed by extra
func NewRedactor(extra ...string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, 0, len(defaultPatterns)+len(extra))}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, regexp.MustCompile(p))
	}
	for _, p := range extra {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// Redact returns b with every match replaced
func (r *Redactor) Redact(b []byte) []byte {
	for _, re := range r.patterns {
		b = re.ReplaceAll(b, redacted)
	}
	return b
}

// Wrap returns a writer that redacts before writing to w
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success, not the redacted length
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.writer.Write(w.redactor.Redact(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
