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
var UserAgent = "Go-Compass/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Compass"
	AppID             = "com.github.tartampluch.go-compass"
	KeyringService    = "com.github.tartampluch.go-compass"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	DotEnvFile        = ".env"
	EnvPrefix         = "COMPASS"
	EnvSourcePassword = "COMPASS_SOURCE_PASSWORD"
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
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion       = "version"
	FlagDebug         = "debug"
	FlagConfig        = "config"
	FlagStorePassword = "store-password"
	FlagDescVersion   = "Show application version and exit"
	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfig    = "Path to a YAML/JSON settings file"
	FlagDescStorePass = "Read the record source password from stdin and store it in the OS keyring"
	MsgVersionOutput  = "%s version %s (%s/%s)\n"
	MsgPasswordPrompt = "Password for %s: "
	MsgPasswordStored = "Password stored in keyring."
)

// -----------------------------------------------------------------------------
// Settings Keys (viper) & Defaults
// -----------------------------------------------------------------------------

const (
	KeyListenAddr      = "listen_addr"
	KeyPort            = "port"
	KeyLanguage        = "language"
	KeySourceMode      = "source_mode"
	KeySourceURL       = "source_url"
	KeySourcePath      = "source_path"
	KeySourceUser      = "source_user"
	KeyRefreshInterval = "refresh_interval"
	KeyReminderTrigger = "reminder_trigger"
	KeyWindowDays      = "window_days"
	KeyRosterLimit     = "roster_limit"

	SourceModeAPI   = "api"
	SourceModeVCard = "vcard"
	SourceModeFile  = "file"

	DefaultPort            = 18080
	DefaultLanguage        = "en"
	DefaultSourceMode      = SourceModeFile
	DefaultSourcePath      = "students.json"
	DefaultRefreshInterval = 60 * time.Minute
	DefaultReminderTrigger = "-P1D"
)

// -----------------------------------------------------------------------------
// Birthday Logic
// -----------------------------------------------------------------------------

const (
	// DefaultRosterLimit is the number of entries shown by the upcoming birthdays widget.
	DefaultRosterLimit = 5

	// DefaultWindowDays classifies an anniversary as "upcoming".
	DefaultWindowDays = 30

	// SoonThresholdDays drives the "soon" badge on student cards.
	SoonThresholdDays = 14

	// LeapDayFallback is the day of February used for Feb 29 anniversaries in common years.
	LeapDayFallback = 28

	MinCalendarYear = 1
	MaxCalendarYear = 9999

	UIDSalt       = "go-compass-v1-"
	UIDHashLength = 16
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyEvtSummary      = "event_summary"       // Requires Name
	TKeyEvtSummaryAge   = "event_summary_age"   // Requires Name, Age
	TKeyEvtSummaryBirth = "event_summary_birth" // Requires Name
	TKeyBadgeToday      = "badge_today"
	TKeyBadgeSoon       = "badge_soon"
	TKeyBadgeUpcoming   = "badge_upcoming"
	TKeyDaysUntil       = "days_until"         // Requires Count (plural)
	TKeyRosterTitle     = "roster_title"
	TKeyRosterDesc      = "roster_description" // Requires Days
	TKeyRosterEmpty     = "roster_empty"       // Requires Days

	LocalesDir    = "locales"
	LocalePrefix  = "active."
	LocaleSuffix  = ".json"
	LocaleFormat  = "json"
	QueryLanguage = "lang"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Compass//Birthdays//EN"
	ICalCalName   = "Student Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gocompass"

	// iCal Fields
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

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted for birth dates.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatISO       = "%04d-%02d-%02d"

	// Input sanitation
	MaxTextLength  = 120
	MaxEmailLength = 254

	MinPort = 1
	MaxPort = 65535

	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%d@%s"
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
	HandlerTimeout      = 15 * time.Second
	RetryAfterSeconds   = "10"
	MaxHTTPResponseSize = 64 * 1024 * 1024 // 64MB
	MaxRequestIDLength  = 128
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
	PathStudents        = "/students"
)

// -----------------------------------------------------------------------------
// HTTP Routes, Queries, Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	RouteHealth          = "/health"
	RouteCalendar        = "/calendar.ics"
	RouteMetrics         = "/metrics"
	RouteAPIPrefix       = "/api/v1"
	RouteBirthdays       = "/birthdays"
	RouteRoster          = "/roster"
	RouteStudentBirthday = "/students/{id}/birthday"
	RouteRefresh         = "/refresh"
	URLParamID           = "id"

	// RouteUnmatched labels requests no route pattern matched.
	RouteUnmatched = "unmatched"

	QueryDays   = "days"
	QueryLimit  = "limit"
	QueryDate   = "date"
	QueryChurch = "church"
	QueryClass  = "class" // repeatable, or comma separated

	ListSeparator = ","

	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderAcceptLanguage  = "Accept-Language"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderRequestID       = "X-Request-ID"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeVCard           = "text/vcard"
	MimeXVCard          = "text/x-vcard"
	MimeDirectory       = "text/directory"
	MimeAnyFallback     = "*/*;q=0.1"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"
	MethodListSeparator = ", "

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Codes (JSON envelopes)
// -----------------------------------------------------------------------------

const (
	CodeInvalidDate     = "invalid_date"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeNotReady        = "not_ready"
	CodeInternal        = "internal_error"
	CodeUnavailable     = "unavailable"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrKindInvalidDate     = "invalid date"
	ErrKindInvalidArgument = "invalid argument"
	ErrDateParse           = "unable to parse date"
	ErrDateOutOfRange      = "calendar date out of range"
	ErrBirthInFuture       = "birth date is after the reference date"
	ErrNegativeWindow      = "window days must not be negative"
	ErrNegativeLimit       = "limit must not be negative"
	ErrNotANumber          = "value must be an integer"

	ErrLocalPathEmpty  = "configuration error: local path is empty"
	ErrWebURLEmpty     = "configuration error: web URL is empty"
	ErrFetcherMissing  = "internal error: network fetcher is not initialized"
	ErrModeUnsupport   = "configuration error: unsupported source mode"
	ErrSettingsRead    = "failed to read settings file"
	ErrSettingsDecode  = "failed to decode settings"
	ErrSettingsInvalid = "invalid settings"
	ErrDotEnvLoad      = "failed to load .env file"
	ErrKeyringStore    = "failed to store password in keyring"
	ErrPasswordRead    = "failed to read password from stdin"
	ErrUserRequired    = "source user is required to store a password"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrAddrRequired    = "server address is required"
	ErrInvalidURL      = "invalid URL structure"
	ErrProtocol        = "unsupported protocol scheme (http/https only)"
	ErrRequestBuild    = "failed to create request"
	ErrNetwork         = "network error during fetch"
	ErrFetchStatus     = "server returned unexpected status"
	ErrContentType     = "unexpected response content type"
	ErrVCardParse      = "failed to parse vCard stream"
	ErrStudentsDecode  = "failed to decode student records"
	ErrStudentsFile    = "failed to read student records file"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrSourceLoad      = "failed to load student records"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrNoLocales       = "no locale files found"
	ErrLocNotInit      = "localizer not initialized"
	ErrPanic           = "panic recovered"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Roster initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgNotFound     = "student not found"
	HTTPMsgRefreshOff   = "manual refresh is not available"
	HTTPStatusOK        = "ok"
	HTTPStatusQueued    = "queued"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackSummary      = "Birthday: %s"
	FallbackSummaryAge   = "Birthday: %s (%d)"
	FallbackSummaryBirth = "Birthday: %s (birth)"
	FallbackName         = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgRefreshStarted  = "Roster refresh started"
	MsgRefreshFailed   = "Roster refresh failed, keeping previous snapshot"
	MsgRefreshDone     = "Roster refresh finished"
	MsgRefreshReq      = "Manual refresh requested"
	MsgWorkerStart     = "Background worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgAppStop         = "Application stopped gracefully"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSkippedDate     = "Skipping record with invalid birth date"
	MsgSkippedRecord   = "Skipping invalid student record"
	MsgUnsafeRecord    = "Dropping student record with unsafe input"
	MsgGenSuccess      = "Calendar generation successful"
	MsgAppStarting     = "Starting application"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgSnapshotUpdated = "Roster snapshot updated"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval from keyring failed, using environment"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgBdayToday       = "Birthday found today"
	MsgDownloading     = "Student records downloading"
	MsgDownloadStart   = "Initiating download"
	MsgStatusError     = "Server returned error status"
	MsgContentRejected = "Response content type rejected"
	MsgRequest         = "request completed"
	MsgSettingsLoaded  = "Settings loaded"
	MsgRosterSkipped   = "Roster skipped records"
	MsgStudentsLoaded  = "Student records loaded"
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
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyAddr      = "addr"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeyTotal     = "total_records"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyID        = "student_id"
	LogKeySkipped   = "skipped"
	LogKeyDOB       = "date_of_birth"
	LogKeyDuration  = "duration_ms"
	LogKeyRequestID = "request_id"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyStack     = "stack"
	LogKeyLength    = "content_length"
	LogKeyMediaType = "media_type"

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
	CompMain    = "main"
	CompConfig  = "config"
	CompEngine  = "engine"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompSource  = "source"
	CompWorker  = "worker"
	CompI18n    = "i18n"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

const (
	MetricNamespace       = "compass"
	MetricRequestLatency  = "http_request_duration_seconds"
	MetricSnapshotUpdates = "snapshot_updates_total"
	MetricStudentsLoaded  = "students_loaded"
	MetricRosterSkipped   = "roster_skipped_records_total"
	MetricLabelRoute      = "route"
	MetricLabelStatus     = "status"
)
