package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingField         ErrorCode = 102
	ErrCodeInvalidShape         ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104

	// Ledger schema errors (200-299)
	ErrCodeMissingColumn       ErrorCode = 200
	ErrCodeAmbiguousSchema     ErrorCode = 201
	ErrCodeIncompleteTradePair ErrorCode = 202
	ErrCodeColumnParseFailed   ErrorCode = 203

	// Data/Resource errors (300-399)
	ErrCodeDataSourceUnavailable ErrorCode = 300
	ErrCodeQueryFailed           ErrorCode = 301
	ErrCodeNoDataFound           ErrorCode = 302

	// Report errors (400-499)
	ErrCodeReportWriteFailed ErrorCode = 400
)
