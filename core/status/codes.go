package status

// Code is a fine-grained outcome or event classification.
type Code string

// Success.
const (
	OK             Code = "OK"
	OKNoData       Code = "OK_NO_DATA"
	PartialSuccess Code = "PARTIAL_SUCCESS"
)

// Configuration.
const (
	ConfigMissing    Code = "CONFIG_MISSING"
	ConfigInvalid    Code = "CONFIG_INVALID"
	ConfigConflict   Code = "CONFIG_CONFLICT"
	ConfigUnreadable Code = "CONFIG_UNREADABLE"
)

// Auth / access.
const (
	AuthFailed         Code = "AUTH_FAILED"
	AuthAPIKeyMissing  Code = "AUTH_API_KEY_MISSING"
	PermissionDenied   Code = "PERMISSION_DENIED"
	InvalidAPIKey      Code = "INVALID_API_KEY"
	LicenseNotEntitled Code = "LICENSE_NOT_ENTITLED"
)

// Transport. No HTTP status exists for any of these.
const (
	TransportTimeout           Code = "TRANSPORT_TIMEOUT"
	TransportDNSFailure        Code = "TRANSPORT_DNS_FAILURE"
	TransportSSLError          Code = "TRANSPORT_SSL_ERROR"
	TransportProxyError        Code = "TRANSPORT_PROXY_ERROR"
	TransportConnectionRefused Code = "TRANSPORT_CONNECTION_REFUSED"
	TransportConnectionReset   Code = "TRANSPORT_CONNECTION_RESET"
	TransportConnectionFailed  Code = "TRANSPORT_CONNECTION_FAILED"
	TransportUnknown           Code = "TRANSPORT_UNKNOWN"
)

// API semantics.
const (
	APIUnauthorized       Code = "API_UNAUTHORIZED"
	APIForbidden          Code = "API_FORBIDDEN"
	APINotFound           Code = "API_NOT_FOUND"
	APIRateLimited        Code = "API_RATE_LIMITED"
	APIServerError        Code = "API_SERVER_ERROR"
	APIBadRequest         Code = "API_BAD_REQUEST"
	APIUnexpectedResponse Code = "API_UNEXPECTED_RESPONSE"
	APISchemaChanged      Code = "API_SCHEMA_CHANGED"
)

// Data handling.
const (
	PayloadParseError      Code = "PAYLOAD_PARSE_ERROR"
	PayloadValidationError Code = "PAYLOAD_VALIDATION_ERROR"
	SchemaMismatch         Code = "SCHEMA_MISMATCH"
	DataTruncation         Code = "DATA_TRUNCATION"
	DuplicateRecord        Code = "DUPLICATE_RECORD"
	RecordKeyMissing       Code = "RECORD_KEY_MISSING"
)

// Database.
const (
	DBConnectionFailed    Code = "DB_CONNECTION_FAILED"
	DBAuthFailed          Code = "DB_AUTH_FAILED"
	DBTransactionFailed   Code = "DB_TRANSACTION_FAILED"
	DBConstraintViolation Code = "DB_CONSTRAINT_VIOLATION"
	DBInsertFailed        Code = "DB_INSERT_FAILED"
	DBReadFailed          Code = "DB_READ_FAILED"
	DBTimeout             Code = "DB_TIMEOUT"
	DBSchemaMissing       Code = "DB_SCHEMA_MISSING"
	DBSchemaMismatch      Code = "DB_SCHEMA_MISMATCH"
)

// Ingestion outcome.
const (
	IngestionFetchFailed     Code = "INGESTION_FETCH_FAILED"
	IngestionWriteFailed     Code = "INGESTION_WRITE_FAILED"
	IngestionPartialWrite    Code = "INGESTION_PARTIAL_WRITE"
	IngestionAborted         Code = "INGESTION_ABORTED"
	IngestionReconcileFailed Code = "INGESTION_RECONCILE_FAILED"
	NoRecordsReturned        Code = "NO_RECORDS_RETURNED"
	RecordWriteFailed        Code = "RECORD_WRITE_FAILED"
	FlushFailed              Code = "FLUSH_FAILED"
	BackfillFailed           Code = "BACKFILL_FAILED"
)

// Execution / runtime.
const (
	ExecutionInterrupted        Code = "EXECUTION_INTERRUPTED"
	ExecutionUnhandledException Code = "EXECUTION_UNHANDLED_EXCEPTION"
	ExecutionDispatchFailed     Code = "EXECUTION_DISPATCH_FAILED"
	ExecutionInvalidArgument    Code = "EXECUTION_INVALID_ARGUMENT"
)

// Internal invariant violations.
const (
	InternalInvariantViolation Code = "INTERNAL_INVARIANT_VIOLATION"
	InternalUnreachable        Code = "INTERNAL_UNREACHABLE"
)

// Band groups codes by concern.
type Band string

const (
	BandSuccess   Band = "success"
	BandConfig    Band = "config"
	BandAuth      Band = "auth"
	BandTransport Band = "transport"
	BandAPI       Band = "api"
	BandData      Band = "data"
	BandDatabase  Band = "database"
	BandIngestion Band = "ingestion"
	BandExecution Band = "execution"
	BandInternal  Band = "internal"
	BandUnknown   Band = "unknown"
)

var bands = map[Code]Band{
	OK:             BandSuccess,
	OKNoData:       BandSuccess,
	PartialSuccess: BandSuccess,

	ConfigMissing:    BandConfig,
	ConfigInvalid:    BandConfig,
	ConfigConflict:   BandConfig,
	ConfigUnreadable: BandConfig,

	AuthFailed:         BandAuth,
	AuthAPIKeyMissing:  BandAuth,
	PermissionDenied:   BandAuth,
	InvalidAPIKey:      BandAuth,
	LicenseNotEntitled: BandAuth,

	TransportTimeout:           BandTransport,
	TransportDNSFailure:        BandTransport,
	TransportSSLError:          BandTransport,
	TransportProxyError:        BandTransport,
	TransportConnectionRefused: BandTransport,
	TransportConnectionReset:   BandTransport,
	TransportConnectionFailed:  BandTransport,
	TransportUnknown:           BandTransport,

	APIUnauthorized:       BandAPI,
	APIForbidden:          BandAPI,
	APINotFound:           BandAPI,
	APIRateLimited:        BandAPI,
	APIServerError:        BandAPI,
	APIBadRequest:         BandAPI,
	APIUnexpectedResponse: BandAPI,
	APISchemaChanged:      BandAPI,

	PayloadParseError:      BandData,
	PayloadValidationError: BandData,
	SchemaMismatch:         BandData,
	DataTruncation:         BandData,
	DuplicateRecord:        BandData,
	RecordKeyMissing:       BandData,

	DBConnectionFailed:    BandDatabase,
	DBAuthFailed:          BandDatabase,
	DBTransactionFailed:   BandDatabase,
	DBConstraintViolation: BandDatabase,
	DBInsertFailed:        BandDatabase,
	DBReadFailed:          BandDatabase,
	DBTimeout:             BandDatabase,
	DBSchemaMissing:       BandDatabase,
	DBSchemaMismatch:      BandDatabase,

	IngestionFetchFailed:     BandIngestion,
	IngestionWriteFailed:     BandIngestion,
	IngestionPartialWrite:    BandIngestion,
	IngestionAborted:         BandIngestion,
	IngestionReconcileFailed: BandIngestion,
	NoRecordsReturned:        BandIngestion,
	RecordWriteFailed:        BandIngestion,
	FlushFailed:              BandIngestion,
	BackfillFailed:           BandIngestion,

	ExecutionInterrupted:        BandExecution,
	ExecutionUnhandledException: BandExecution,
	ExecutionDispatchFailed:     BandExecution,
	ExecutionInvalidArgument:    BandExecution,

	InternalInvariantViolation: BandInternal,
	InternalUnreachable:        BandInternal,
}

// Band returns the band the code belongs to, or BandUnknown for codes that
// are not part of the published set.
func (c Code) Band() Band {
	if b, ok := bands[c]; ok {
		return b
	}
	return BandUnknown
}

// Known reports whether c is a published code.
func (c Code) Known() bool {
	_, ok := bands[c]
	return ok
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return string(c)
}
