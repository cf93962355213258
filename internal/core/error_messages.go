package core

// error_messages.go maps technical errors to user-facing messages with a code that
// users can quote when asking for help.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported format: Only CSV and Excel files are accepted
//	          Action: Use a .csv, .xlsx or .xls file
//	          Patterns: "unsupported file format"
//
//	FILE003 - Empty file: The file has no header row
//	          Action: Upload a file whose first row holds the column names
//	          Patterns: "empty file"
//
//	FILE004 - Invalid CSV: The CSV file could not be read
//	          Action: Check the file is comma separated text
//	          Patterns: "decode csv"
//
//	FILE005 - Invalid workbook: The Excel file could not be read
//	          Action: Open the file in Excel and save it again
//	          Patterns: "decode xls" (covers xls and xlsx)
//
//	FILE006 - No file: No file was selected
//	          Action: Choose a file or drop it on the upload area
//	          Patterns: "no file provided"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: The session was not found
//	         Action: Reload the page and load the file again
//	         Patterns: "session not found"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - No data: There is no data to process
//	         Action: Load a CSV or Excel file first
//	         Patterns: "no data to process"
//
//	RUN002 - No table: No target table selected
//	         Action: Pick a table from the list
//	         Patterns: "no table selected"
//
//	RUN003 - System busy: Too many runs in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent runs"
//
//	RUN004 - Run expired: The run was not found
//	         Action: Start the run again
//	         Patterns: "run not found"
//
//	RUN005 - Run cancelled: The request was cancelled
//	         Action: Start the run again when ready
//	         Patterns: "context canceled"
//
//	RUN006 - Timeout: The request timed out
//	         Action: Please try again
//	         Patterns: "context deadline exceeded"
//
//	RUN007 - Run in progress: The session already has a running pass
//	         Action: Wait for it to finish or cancel it
//	         Patterns: "run already in progress"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Unknown table: The table is not in the catalog
//	         Action: Pick a table from the list
//	         Patterns: "unknown table"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains against the
// full wrapped error text. The first match wins, so specific patterns come
// before general ones ("empty file" before "decode csv").

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Unsupported file format",
			Action:  "Use CSV or Excel",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Upload a file whose first row holds the column names",
			Code:    "FILE003",
		},
	},
	{
		pattern: "decode csv",
		msg: UserMessage{
			Message: "The CSV file could not be read",
			Action:  "Check the file is comma separated text",
			Code:    "FILE004",
		},
	},
	{
		pattern: "decode xls",
		msg: UserMessage{
			Message: "The Excel file could not be read",
			Action:  "Open the file in Excel and save it again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file or drop it on the upload area",
			Code:    "FILE006",
		},
	},

	// Session errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page and load the file again",
			Code:    "SES001",
		},
	},

	// Run errors
	{
		pattern: "no data to process",
		msg: UserMessage{
			Message: "There is no data to process",
			Action:  "Load a CSV or Excel file first",
			Code:    "RUN001",
		},
	},
	{
		pattern: "no table selected",
		msg: UserMessage{
			Message: "Please select a target table",
			Action:  "Pick a table from the list",
			Code:    "RUN002",
		},
	},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "Too many runs in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN003",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "The run was not found",
			Action:  "Start the run again",
			Code:    "RUN004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Start the run again when ready",
			Code:    "RUN005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "RUN006",
		},
	},
	{
		pattern: "run already in progress",
		msg: UserMessage{
			Message: "A run is already in progress",
			Action:  "Wait for it to finish or cancel it",
			Code:    "RUN007",
		},
	},

	// Table errors
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "The selected table is not in the catalog",
			Action:  "Pick a table from the list",
			Code:    "TBL001",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("decode csv: %w", ErrEmptyFile))
//	// msg.Code == "FILE003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
// Error() gives the user message; Unwrap() gives the technical error.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
