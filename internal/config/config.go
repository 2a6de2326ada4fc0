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
var UserAgent = "Go-EventTracker/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Event Tracker"
	AppID             = "com.github.tartampluch.go-eventtracker"
	KeyringService    = "com.github.tartampluch.go-eventtracker"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DatabaseFileName  = "events.db"
	SettingsFileName  = "settings.yaml"
	ExportDirName     = "Events"
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
	// Used for logs, settings and the database.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// FilePermExport represents -rw-r--r--. Exports are meant to be copied around.
	FilePermExport fs.FileMode = 0644

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags, Commands & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagConfig       = "config"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescConfig   = "Path to the settings file (.yaml or .toml)"
	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"

	FlagName      = "name"
	FlagDate      = "date"
	FlagType      = "type"
	FlagNoYear    = "no-year"
	FlagID        = "id"
	FlagAll       = "all"
	FlagFile      = "file"
	FlagURL       = "url"
	FlagUser      = "user"
	FlagLimit     = "limit"
	FlagDescName  = "Display name of the event"
	FlagDescDate  = "Original date (YYYY-MM-DD)"
	FlagDescType  = "Event type (BIRTHDAY or ANNIVERSARY)"
	FlagDescNoY   = "The year of the date is a placeholder"
	FlagDescID    = "Identifier of the event"
	FlagDescAll   = "Apply to every event"
	FlagDescFile  = "Path of the file to read"
	FlagDescURL   = "CardDAV/WebDAV URL of a vCard collection"
	FlagDescUser  = "HTTP Basic Auth username"
	FlagDescLimit = "Maximum number of rows (0 = all)"

	CmdList        = "list"
	CmdWidget      = "widget"
	CmdAdd         = "add"
	CmdEdit        = "edit"
	CmdDelete      = "delete"
	CmdExport      = "export"
	CmdImport      = "import"
	CmdImportVCard = "import-vcard"
	CmdSetPassword = "set-password"
	CmdServe       = "serve"

	MsgUsage = "usage: go-eventtracker [-debug] [-config path] <list|widget|add|edit|delete|export|import|import-vcard|set-password|serve> [flags]\n"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyToday          = "label_today"
	TKeyTomorrow       = "label_tomorrow"
	TKeyInDays         = "label_in_days" // Requires Count
	TKeyNoUpcoming     = "label_no_upcoming"
	TKeyBirthday       = "type_birthday"
	TKeyAnniversary    = "type_anniversary"
	TKeyExportOK       = "msg_export_ok"     // Requires Path
	TKeyExportFailed   = "msg_export_failed" // Requires Error
	TKeyImportOK       = "msg_import_ok"     // Requires Count
	TKeyImportFailed   = "msg_import_failed" // Requires Error
	TKeyEvtSummary     = "event_summary"     // Requires Name
	TKeyEvtSummaryAge  = "event_summary_age" // Requires Name, Age
	TKeyEvtSummaryZero = "event_summary_zero"
	TKeyAnnSummary     = "anniversary_summary"
	TKeyAnnSummaryAge  = "anniversary_summary_age"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultPort        = "18080"
	DefaultLanguage    = "en"
	DefaultRefreshCron = "1 0 * * *" // Just after midnight: days-until changes at rollover.
	DefaultLeapYear    = 2000        // Placeholder year for dates like --02-29
	UIDSalt            = "go-eventtracker-v1-"

	// FallbackMonth/FallbackDay replace Feb 29 in years that do not have one.
	FallbackMonth = time.March
	FallbackDay   = 1

	// Widget
	WidgetMaxRows     = 4
	WidgetNameMaxLen  = 16
	WidgetEllipsis    = "..."
	WidgetAgeUnknown  = "--"
	WidgetLoadTimeout = 2 * time.Second

	SourceModeWeb   = "web"
	SourceModeLocal = "local"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Environment Overrides (.env / process environment)
// -----------------------------------------------------------------------------

const (
	EnvFile         = ".env"
	EnvDatabasePath = "EVENTTRACKER_DB"
	EnvExportDir    = "EVENTTRACKER_EXPORT_DIR"
	EnvPort         = "EVENTTRACKER_PORT"
	EnvLanguage     = "EVENTTRACKER_LANG"
	EnvRefreshCron  = "EVENTTRACKER_REFRESH"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go EventTracker//Engine//EN"
	ICalCalName   = "Birthdays & Anniversaries"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "goeventtracker"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropCategories  = "CATEGORIES"

	VCardBDAY        = "BDAY"
	VCardAnniversary = "ANNIVERSARY"
	VCardFN          = "FN"
	VCardN           = "N"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Names
// -----------------------------------------------------------------------------

const (
	// DateFormatISO is the only layout accepted by the transfer codec.
	DateFormatISO = "2006-01-02"

	// Date layouts used for parsing vCard BDAY/ANNIVERSARY fields
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// Transfer files
	ExportFilePrefix = "Events_"
	ExportFileExt    = ".json"
	ExportTempGlob   = ".events-export-*.tmp"
	JSONIndent       = "  "

	// Settings files
	ExtYAML         = ".yaml"
	ExtYML          = ".yml"
	ExtTOML         = ".toml"
	SettingsTmpGlob = ".eventtracker-settings-*.tmp"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	FormatHashInput = "%s|%s|%s|%d"
)

// -----------------------------------------------------------------------------
// Storage
// -----------------------------------------------------------------------------

const (
	SQLiteDriver  = "sqlite3"
	SQLiteDSNOpts = "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	MemoryDSN     = ":memory:"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	MaxImportBodySize   = 16 * 1024 * 1024
	MaxCardFailures     = 64 // consecutive undecodable cards before giving up
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	RouteHealth   = "/health"
	RouteCalendar = "/calendar.ics"
	RouteEvents   = "/api/events"
	RouteEventID  = "/api/events/:id"
	RouteExport   = "/api/export"
	RouteImport   = "/api/import"
	RouteWidget   = "/api/widget"
	ParamID       = "id"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderCacheControl       = "Cache-Control"
	HeaderETag               = "ETag"
	HeaderLastModified       = "Last-Modified"
	HeaderRetryAfter         = "Retry-After"
	HeaderAllow              = "Allow"
	HeaderXContentType       = "X-Content-Type-Options"
	HeaderUserAgent          = "User-Agent"
	HeaderAccept             = "Accept"
	HeaderIfNoneMatch        = "If-None-Match"
	HeaderIfModifiedSince    = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeVCardAccept     = "text/vcard, text/x-vcard;q=0.9, */*;q=0.1"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
	// FormatAttachment expects a file name.
	FormatAttachment = `attachment; filename="%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty  = "configuration error: local path is empty"
	ErrWebURLEmpty     = "configuration error: web URL is empty"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrPortNumber      = "server port must be a number"
	ErrPortRange       = "server port must be between 1 and 65535"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrFetchRequest    = "failed to create request"
	ErrFetchNetwork    = "network error during fetch"
	ErrFetchStatus     = "contacts server returned unexpected status"
	ErrFetchAuth       = "credentials rejected; store the password with set-password"
	ErrVCardParse      = "failed to parse vCard stream"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrDateParse       = "unable to parse date"
	ErrDateFormat      = "date is not in YYYY-MM-DD format"
	ErrDateInvalid     = "date does not exist in the calendar"
	ErrNameBlank       = "name must not be blank"
	ErrCategoryUnknown = "unknown event type"
	ErrTransferFormat  = "malformed transfer data"
	ErrTransferIO      = "transfer file operation failed"
	ErrTransferEncode  = "failed to encode transfer data"
	ErrTransferShape   = "transfer data is not an array of records"
	ErrStoreOpen       = "failed to open event store"
	ErrStoreMigrate    = "failed to migrate event store"
	ErrStoreQuery      = "event store query failed"
	ErrStoreNotFound   = "event not found"
	ErrSettingsLoad    = "failed to load settings"
	ErrSettingsSave    = "failed to save settings"
	ErrSettingsPath    = "settings path is empty"
	ErrSettingsNil     = "settings are nil"
	ErrSettingsFormat  = "unsupported settings file extension"
	ErrCronSpec        = "invalid refresh schedule"
	ErrFeedRender      = "failed to render calendar feed"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrConfigDir       = "could not determine user config dir"
	ErrCreateDir       = "could not create app directory"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrKeyringSet      = "failed to store password in keyring"
	ErrUnknownCommand  = "unknown command"
	ErrMissingArg      = "missing required argument"
	ErrInvalidID       = "invalid event identifier"
	ErrInvalidEvent    = "invalid event"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPStatusOK        = "ok"
	JSONKeyError        = "error"
	JSONKeyStatus       = "status"
	JSONKeyImported     = "imported"
	QueryLang           = "lang"
)

// -----------------------------------------------------------------------------
// Fallbacks & Messages
// -----------------------------------------------------------------------------

const (
	FallbackToday          = "Today"
	FallbackTomorrow       = "Tomorrow"
	FallbackInDays         = "In %d days"
	FallbackNoUpcoming     = "No upcoming events"
	FallbackBirthday       = "Birthday"
	FallbackAnniversary    = "Anniversary"
	FallbackExportOK       = "Data exported to: %s"
	FallbackExportFailed   = "Export failed: %s"
	FallbackImportOK       = "Import successful: %d events imported"
	FallbackImportFailed   = "Import failed: %s"
	FallbackSummary        = "%s: %s"
	FallbackSummaryAge     = "%s: %s (%d)"
	FallbackName           = "Unknown"
	FormatListRow          = "%4d  %-24s  %s  %-11s  %4s  %s\n"
	FormatWidgetRow        = "%-19s %3s  %s\n"
	FormatCreated          = "%d\n"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStop       = "Application stopped gracefully"
	MsgAppStarting   = "Starting application"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgCacheUpdated  = "Calendar cache updated"
	MsgFeedRefresh   = "Refreshing calendar feed"
	MsgSchedulerUp   = "Refresh scheduler started"
	MsgSkippedCard   = "Skipping malformed vCard"
	MsgSkippedDate   = "Skipping invalid date format"
	MsgGenSuccess    = "Calendar generation successful"
	MsgVCardParsed   = "vCard source parsed"
	MsgVCardImported = "Contacts imported from vCard source"
	MsgVCardFailed   = "vCard source could not be read"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgPassFail      = "Password retrieval failed (might be empty)"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
	MsgEventToday    = "Event occurs today"
	MsgExported      = "Events exported"
	MsgImported      = "Events imported"
	MsgDuplicateSkip = "Skipping duplicate event on import"
	MsgStoreOpened   = "Event store opened"
	MsgEventCreated  = "Event created"
	MsgEventUpdated  = "Event updated"
	MsgEventDeleted  = "Event deleted"
	MsgEventsCleared = "All events deleted"
	MsgSettingsNew   = "Settings file created with defaults"
	MsgWidgetLoad    = "Widget could not load events"
	MsgPasswordSaved = "Password stored in keyring\n"
	MsgEnterPassword = "Password: "
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyPath      = "path"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyUser      = "user"
	LogKeyTotal     = "total"
	LogKeyFound     = "events_found"
	LogKeyToday     = "events_today"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeySkipped   = "skipped"
	LogKeyName      = "name"
	LogKeyDate      = "date"
	LogKeyID        = "id"
	LogKeyCron      = "schedule"
	LogKeyDuration  = "duration_ms"
	LogKeyMethod    = "method"

	// Invocation Keys
	LogKeyCommand = "command"
	LogKeyBuild   = "build"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyGoVer   = "go_version"
	LogKeyOS      = "os"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine   = "engine"
	CompServer   = "server"
	CompStore    = "store"
	CompTransfer = "transfer"
	CompTracker  = "tracker"
	CompWidget   = "widget"
	CompWorker   = "worker"
	CompMain     = "main"
	CompI18n     = "i18n"
	CompSettings = "settings"
)
