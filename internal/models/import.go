package models

// StatementImport is the result of parsing an uploaded bank statement.
// Unparseable lines are reported, not fatal.
type StatementImport struct {
	LinesRead    int           `json:"lines_read"`
	Parsed       int           `json:"parsed"`
	Created      []Transaction `json:"created"`
	SkippedLines []string      `json:"skipped_lines,omitempty"`
}
