package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Birthday-Sync/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName = "Go Birthday Sync"
	AppID   = "com.github.tartampluch.go-birthday-sync"

	// KeyringService is the default service name under which source
	// passwords are looked up in the OS keyring.
	KeyringService = "com.github.tartampluch.go-birthday-sync"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for the configuration file, which may contain credentials.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for the state store directory.
	DirPermUserRWX fs.FileMode = 0700
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagConfig       = "config"
	FlagStore        = "store"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging"
	FlagDescConfig   = "Path to the YAML configuration file"
	FlagDescStore    = "Path to the state store directory"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultConfigFile    = "config.yaml"
	DefaultStoreDir      = "state"
	DefaultTextTemplate  = "%n (%a)"
	DefaultTextSeparator = ", "

	// MilestoneStep defines which ages count as significant birthdays.
	MilestoneStep = 10
)

// Rollup text placeholders, substituted per record before joining.
const (
	PlaceholderName = "%n"
	PlaceholderAge  = "%a"
)

// Environment variables consulted when a source password is absent from
// the configuration file.
const (
	EnvCalendarPassword  = "BIRTHDAY_CALENDAR_PASSWORD"
	EnvDirectoryPassword = "BIRTHDAY_DIRECTORY_PASSWORD"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"

	VCardFN   = "FN"
	VCardBDAY = "BDAY"
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// DateFormatFullDash is the canonical date layout for vCard BDAY
	// values and for the published "date" rollup leaves.
	DateFormatFullDash = "2006-01-02"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	// HTTPTimeout bounds every source fetch. A hung DNS lookup or TLS
	// handshake can delay the run only up to this limit.
	HTTPTimeout         = 5 * time.Second
	MaxHTTPResponseSize = 32 * 1024 * 1024 // 32MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	SchemeSeparator     = "://"
	HeaderUserAgent     = "User-Agent"
)

// -----------------------------------------------------------------------------
// State Store Layout
// -----------------------------------------------------------------------------

const (
	PathSeparator = "/"

	// PathRoot is the top-level namespace every published key lives under.
	PathRoot = "birthdays"

	// Per-person records live under PathMonthRoot/<month>/<identityKey>.
	PathMonthRoot = PathRoot + PathSeparator + "month"

	PathSummaryAll         = PathRoot + PathSeparator + "summary" + PathSeparator + "all"
	PathSummarySignificant = PathRoot + PathSeparator + "summary" + PathSeparator + "significant"

	PathNext            = PathRoot + PathSeparator + "next"
	PathNextAfter       = PathRoot + PathSeparator + "nextAfter"
	PathNextSignificant = PathRoot + PathSeparator + "nextSignificant"

	// Per-person field leaves.
	FieldName     = "name"
	FieldAge      = "age"
	FieldDay      = "day"
	FieldYear     = "year"
	FieldDaysLeft = "daysLeft"

	// Rollup leaves.
	LeafJSON      = "json"
	LeafText      = "text"
	LeafDaysLeft  = "daysLeft"
	LeafTimestamp = "timestamp"
	LeafDate      = "date"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigPathEmpty = "configuration error: config path is empty"
	ErrStorePathEmpty  = "configuration error: store path is empty"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrCalendarParse   = "failed to parse iCalendar document"
	ErrStoreOpen       = "failed to open state store"
	ErrAppFailed       = "run failed unexpectedly"
	ErrDateParse       = "unable to parse date"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting run"
	MsgRunFinished    = "Run finished"
	MsgSourceStarted  = "Collecting birthdays"
	MsgSourceDone     = "Source collection finished"
	MsgSourceFailed   = "Source unavailable"
	MsgSkippedEntry   = "Skipping invalid manual entry"
	MsgSkippedEvent   = "Skipping calendar event"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date"
	MsgFutureYear     = "Skipping future-dated birth year"
	MsgNoRecords      = "No birthdays collected from any source"
	MsgAggregated     = "Aggregation finished"
	MsgDeletedStale   = "Deleted stale birthday record"
	MsgReconciled     = "Reconciliation finished"
	MsgKeyringMiss    = "Password retrieval from keyring failed (might be empty)"
	MsgConfigCreated  = "Default configuration created"
	MsgFetchStarted   = "Initiating download"
	MsgFetchBadStatus = "Server returned error status"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeySource    = "source"
	LogKeyName      = "name"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyPath      = "path"
	LogKeyWrites    = "writes"
	LogKeyDeleted   = "deleted"
	LogKeyDOB       = "date_of_birth"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain       = "main"
	CompConfig     = "config"
	CompFetcher    = "fetcher"
	CompManual     = "manual_source"
	CompCalendar   = "calendar_source"
	CompDirectory  = "directory_source"
	CompAggregator = "aggregator"
	CompReconciler = "reconciler"
	CompStore      = "store"
)
