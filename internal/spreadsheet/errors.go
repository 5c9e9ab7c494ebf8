package spreadsheet

import "errors"

// Input errors. Shape errors abandon the whole run.
var (
	ErrInputShape    = errors.New("unexpected spreadsheet shape")
	ErrMissingColumn = errors.New("required column not found")
	ErrEmptySheet    = errors.New("spreadsheet has no header row")
	ErrUnreadable    = errors.New("file is not a readable xlsx workbook")
)
