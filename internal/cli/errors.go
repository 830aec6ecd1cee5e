// Package cli implements the command-line interface.
package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Vault errors
	ErrVaultNotFound     = "VAULT_NOT_FOUND"
	ErrVaultNotSpecified = "VAULT_NOT_SPECIFIED"
	ErrConfigInvalid     = "CONFIG_INVALID"

	// Settings errors
	ErrSettingsInvalid  = "SETTINGS_INVALID"
	ErrSettingsKey      = "SETTINGS_KEY_UNKNOWN"
	ErrSettingsValue    = "SETTINGS_VALUE_INVALID"
	ErrSettingsNotFound = "SETTINGS_NODE_NOT_FOUND"

	// Label / entry errors
	ErrEntryNotFound = "ENTRY_NOT_FOUND"
	ErrLabelInvalid  = "LABEL_INVALID"
	ErrEntryStatic   = "ENTRY_ALREADY_STATIC"

	// Document errors
	ErrDocumentNotFound = "DOCUMENT_NOT_FOUND"
	ErrDocumentExcluded = "DOCUMENT_EXCLUDED"

	// File errors
	ErrFileNotFound     = "FILE_NOT_FOUND"
	ErrFileExists       = "FILE_EXISTS"
	ErrFileReadError    = "FILE_READ_ERROR"
	ErrFileWriteError   = "FILE_WRITE_ERROR"
	ErrFileOutsideVault = "FILE_OUTSIDE_VAULT"

	// Database errors
	ErrDatabaseError   = "DATABASE_ERROR"
	ErrDatabaseVersion = "DATABASE_VERSION_MISMATCH"
	ErrDatabaseLocked  = "DATABASE_LOCKED"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnSettingsKey       = "SETTINGS_KEY_IGNORED"
	WarnIndexUpdateFailed = "INDEX_UPDATE_FAILED"
	WarnDatabaseOutdated  = "DATABASE_OUTDATED"
)
