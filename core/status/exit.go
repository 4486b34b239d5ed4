package status

// ExitCode is the process exit status reported to the operating system.
// Values are grouped in bands of ten and are a published contract.
type ExitCode int

// 0-9: success and non-failure termination.
const (
	ExitSuccess                  ExitCode = 0
	ExitSuccessNoChanges         ExitCode = 1
	ExitSuccessEmptyResult       ExitCode = 2
	ExitSuccessPartialScope      ExitCode = 3
	ExitSuccessAlreadyConfigured ExitCode = 4
	ExitSuccessValidationOK      ExitCode = 5
	ExitSuccessDryRunOK          ExitCode = 6
	ExitSuccessCacheHit          ExitCode = 7
	ExitSuccessSkipped           ExitCode = 8
	ExitSuccessOperatorExit      ExitCode = 9
)

// 10-19: configuration.
const (
	ExitConfigFileMissing      ExitCode = 10
	ExitConfigFileInvalid      ExitCode = 11
	ExitConfigValueMissing     ExitCode = 12
	ExitConfigValueInvalid     ExitCode = 13
	ExitConfigAPIKeyMissing    ExitCode = 14
	ExitConfigAPIKeyInvalid    ExitCode = 15
	ExitConfigProxyInvalid     ExitCode = 16
	ExitConfigPermissionDenied ExitCode = 17
	ExitConfigResetFailed      ExitCode = 18
	ExitConfigUnknownError     ExitCode = 19
)

// 20-29: command line.
const (
	ExitCLIInvalidCommand       ExitCode = 20
	ExitCLIInvalidArgument      ExitCode = 21
	ExitCLIMissingArgument      ExitCode = 22
	ExitCLIArgumentConflict     ExitCode = 23
	ExitCLIHelpRequested        ExitCode = 24
	ExitCLIVersionRequested     ExitCode = 25
	ExitCLIParseError           ExitCode = 26
	ExitCLIUnsupportedOperation ExitCode = 27
	ExitCLIRuntimeError         ExitCode = 28
	ExitCLIUnknownError         ExitCode = 29
)

// 30-39: network and transport.
const (
	ExitNetworkUnreachable       ExitCode = 30
	ExitNetworkTimeout           ExitCode = 31
	ExitNetworkDNSFailure        ExitCode = 32
	ExitNetworkTLSFailure        ExitCode = 33
	ExitNetworkProxyFailure      ExitCode = 34
	ExitNetworkConnectionRefused ExitCode = 35
	ExitNetworkInterrupted       ExitCode = 36
	ExitNetworkRateLimited       ExitCode = 37
	ExitNetworkBadResponse       ExitCode = 38
	ExitNetworkUnknownError      ExitCode = 39
)

// 40-49: API semantics.
const (
	ExitAPIUnauthorized       ExitCode = 40
	ExitAPIForbidden          ExitCode = 41
	ExitAPINotFound           ExitCode = 42
	ExitAPIConflict           ExitCode = 43
	ExitAPIBadRequest         ExitCode = 44
	ExitAPIUnprocessable      ExitCode = 45
	ExitAPIServerError        ExitCode = 46
	ExitAPISchemaChanged      ExitCode = 47
	ExitAPIDeprecatedEndpoint ExitCode = 48
	ExitAPIUnknownError       ExitCode = 49
)

// 50-59: database.
const (
	ExitDBConnectionFailed    ExitCode = 50
	ExitDBAuthFailed          ExitCode = 51
	ExitDBSchemaMissing       ExitCode = 52
	ExitDBSchemaMismatch      ExitCode = 53
	ExitDBWriteFailed         ExitCode = 54
	ExitDBTransactionFailed   ExitCode = 55
	ExitDBConstraintViolation ExitCode = 56
	ExitDBTimeout             ExitCode = 57
	ExitDBReadFailed          ExitCode = 58
	ExitDBUnknownError        ExitCode = 59
)

// 60-69: ingestion.
const (
	ExitIngestStartFailed         ExitCode = 60
	ExitIngestPartialFailure      ExitCode = 61
	ExitIngestZeroRecords         ExitCode = 62
	ExitIngestSchemaMappingFailed ExitCode = 63
	ExitIngestDuplicateKey        ExitCode = 64
	ExitIngestDataInvalid         ExitCode = 65
	ExitIngestAborted             ExitCode = 66
	ExitIngestStateCorrupt        ExitCode = 67
	ExitIngestRetryExhausted      ExitCode = 68
	ExitIngestUnknownError        ExitCode = 69
)

// 70-79: filesystem.
const (
	ExitFSNotFound         ExitCode = 70
	ExitFSPermissionDenied ExitCode = 71
	ExitFSReadFailed       ExitCode = 72
	ExitFSWriteFailed      ExitCode = 73
	ExitFSDiskFull         ExitCode = 74
	ExitFSPathInvalid      ExitCode = 75
	ExitFSLocked           ExitCode = 76
	ExitFSCorrupt          ExitCode = 77
	ExitFSIOError          ExitCode = 78
	ExitFSUnknownError     ExitCode = 79
)

// 80-89: runtime.
const (
	ExitRuntimeException           ExitCode = 80
	ExitRuntimeInterrupt           ExitCode = 81
	ExitRuntimeSignalTerminated    ExitCode = 82
	ExitRuntimeResourceExhausted   ExitCode = 83
	ExitRuntimeDependencyMissing   ExitCode = 84
	ExitRuntimeVersionIncompatible ExitCode = 85
	ExitRuntimeThreadFailure       ExitCode = 86
	ExitRuntimeDeadlock            ExitCode = 87
	ExitRuntimeAssertionFailed     ExitCode = 88
	ExitRuntimeUnknownError        ExitCode = 89
)

// 90-99: internal.
const (
	ExitInternalStateInvalid       ExitCode = 90
	ExitInternalInvariantViolation ExitCode = 91
	ExitInternalDispatchFailure    ExitCode = 92
	ExitInternalHandlerMissing     ExitCode = 93
	ExitInternalUnreachableCode    ExitCode = 94
	ExitInternalConfigDesync       ExitCode = 95
	ExitInternalDBDesync           ExitCode = 96
	ExitInternalCacheDesync        ExitCode = 97
	ExitInternalCorruption         ExitCode = 98
	ExitInternalUnknownError       ExitCode = 99
)

var exitNames = map[ExitCode]string{
	ExitSuccess:                  "SUCCESS",
	ExitSuccessNoChanges:         "SUCCESS_NO_CHANGES",
	ExitSuccessEmptyResult:       "SUCCESS_EMPTY_RESULT",
	ExitSuccessPartialScope:      "SUCCESS_PARTIAL_SCOPE",
	ExitSuccessAlreadyConfigured: "SUCCESS_ALREADY_CONFIGURED",
	ExitSuccessValidationOK:      "SUCCESS_VALIDATION_OK",
	ExitSuccessDryRunOK:          "SUCCESS_DRY_RUN_OK",
	ExitSuccessCacheHit:          "SUCCESS_CACHE_HIT",
	ExitSuccessSkipped:           "SUCCESS_SKIPPED",
	ExitSuccessOperatorExit:      "SUCCESS_OPERATOR_EXIT",

	ExitConfigFileMissing:      "CONFIG_FILE_MISSING",
	ExitConfigFileInvalid:      "CONFIG_FILE_INVALID",
	ExitConfigValueMissing:     "CONFIG_VALUE_MISSING",
	ExitConfigValueInvalid:     "CONFIG_VALUE_INVALID",
	ExitConfigAPIKeyMissing:    "CONFIG_API_KEY_MISSING",
	ExitConfigAPIKeyInvalid:    "CONFIG_API_KEY_INVALID",
	ExitConfigProxyInvalid:     "CONFIG_PROXY_INVALID",
	ExitConfigPermissionDenied: "CONFIG_PERMISSION_DENIED",
	ExitConfigResetFailed:      "CONFIG_RESET_FAILED",
	ExitConfigUnknownError:     "CONFIG_UNKNOWN_ERROR",

	ExitCLIInvalidCommand:       "CLI_INVALID_COMMAND",
	ExitCLIInvalidArgument:      "CLI_INVALID_ARGUMENT",
	ExitCLIMissingArgument:      "CLI_MISSING_ARGUMENT",
	ExitCLIArgumentConflict:     "CLI_ARGUMENT_CONFLICT",
	ExitCLIHelpRequested:        "CLI_HELP_REQUESTED",
	ExitCLIVersionRequested:     "CLI_VERSION_REQUESTED",
	ExitCLIParseError:           "CLI_PARSE_ERROR",
	ExitCLIUnsupportedOperation: "CLI_UNSUPPORTED_OPERATION",
	ExitCLIRuntimeError:         "CLI_RUNTIME_ERROR",
	ExitCLIUnknownError:         "CLI_UNKNOWN_ERROR",

	ExitNetworkUnreachable:       "NETWORK_UNREACHABLE",
	ExitNetworkTimeout:           "NETWORK_TIMEOUT",
	ExitNetworkDNSFailure:        "NETWORK_DNS_FAILURE",
	ExitNetworkTLSFailure:        "NETWORK_TLS_FAILURE",
	ExitNetworkProxyFailure:      "NETWORK_PROXY_FAILURE",
	ExitNetworkConnectionRefused: "NETWORK_CONNECTION_REFUSED",
	ExitNetworkInterrupted:       "NETWORK_INTERRUPTED",
	ExitNetworkRateLimited:       "NETWORK_RATE_LIMITED",
	ExitNetworkBadResponse:       "NETWORK_BAD_RESPONSE",
	ExitNetworkUnknownError:      "NETWORK_UNKNOWN_ERROR",

	ExitAPIUnauthorized:       "API_UNAUTHORIZED",
	ExitAPIForbidden:          "API_FORBIDDEN",
	ExitAPINotFound:           "API_NOT_FOUND",
	ExitAPIConflict:           "API_CONFLICT",
	ExitAPIBadRequest:         "API_BAD_REQUEST",
	ExitAPIUnprocessable:      "API_UNPROCESSABLE",
	ExitAPIServerError:        "API_SERVER_ERROR",
	ExitAPISchemaChanged:      "API_SCHEMA_CHANGED",
	ExitAPIDeprecatedEndpoint: "API_DEPRECATED_ENDPOINT",
	ExitAPIUnknownError:       "API_UNKNOWN_ERROR",

	ExitDBConnectionFailed:    "DB_CONNECTION_FAILED",
	ExitDBAuthFailed:          "DB_AUTH_FAILED",
	ExitDBSchemaMissing:       "DB_SCHEMA_MISSING",
	ExitDBSchemaMismatch:      "DB_SCHEMA_MISMATCH",
	ExitDBWriteFailed:         "DB_WRITE_FAILED",
	ExitDBTransactionFailed:   "DB_TRANSACTION_FAILED",
	ExitDBConstraintViolation: "DB_CONSTRAINT_VIOLATION",
	ExitDBTimeout:             "DB_TIMEOUT",
	ExitDBReadFailed:          "DB_READ_FAILED",
	ExitDBUnknownError:        "DB_UNKNOWN_ERROR",

	ExitIngestStartFailed:         "INGEST_START_FAILED",
	ExitIngestPartialFailure:      "INGEST_PARTIAL_FAILURE",
	ExitIngestZeroRecords:         "INGEST_ZERO_RECORDS",
	ExitIngestSchemaMappingFailed: "INGEST_SCHEMA_MAPPING_FAILED",
	ExitIngestDuplicateKey:        "INGEST_DUPLICATE_KEY",
	ExitIngestDataInvalid:         "INGEST_DATA_INVALID",
	ExitIngestAborted:             "INGEST_ABORTED",
	ExitIngestStateCorrupt:        "INGEST_STATE_CORRUPT",
	ExitIngestRetryExhausted:      "INGEST_RETRY_EXHAUSTED",
	ExitIngestUnknownError:        "INGEST_UNKNOWN_ERROR",

	ExitFSNotFound:         "FS_NOT_FOUND",
	ExitFSPermissionDenied: "FS_PERMISSION_DENIED",
	ExitFSReadFailed:       "FS_READ_FAILED",
	ExitFSWriteFailed:      "FS_WRITE_FAILED",
	ExitFSDiskFull:         "FS_DISK_FULL",
	ExitFSPathInvalid:      "FS_PATH_INVALID",
	ExitFSLocked:           "FS_LOCKED",
	ExitFSCorrupt:          "FS_CORRUPT",
	ExitFSIOError:          "FS_IO_ERROR",
	ExitFSUnknownError:     "FS_UNKNOWN_ERROR",

	ExitRuntimeException:           "RUNTIME_EXCEPTION",
	ExitRuntimeInterrupt:           "RUNTIME_INTERRUPT",
	ExitRuntimeSignalTerminated:    "RUNTIME_SIGNAL_TERMINATED",
	ExitRuntimeResourceExhausted:   "RUNTIME_RESOURCE_EXHAUSTED",
	ExitRuntimeDependencyMissing:   "RUNTIME_DEPENDENCY_MISSING",
	ExitRuntimeVersionIncompatible: "RUNTIME_VERSION_INCOMPATIBLE",
	ExitRuntimeThreadFailure:       "RUNTIME_THREAD_FAILURE",
	ExitRuntimeDeadlock:            "RUNTIME_DEADLOCK",
	ExitRuntimeAssertionFailed:     "RUNTIME_ASSERTION_FAILED",
	ExitRuntimeUnknownError:        "RUNTIME_UNKNOWN_ERROR",

	ExitInternalStateInvalid:       "INTERNAL_STATE_INVALID",
	ExitInternalInvariantViolation: "INTERNAL_INVARIANT_VIOLATION",
	ExitInternalDispatchFailure:    "INTERNAL_DISPATCH_FAILURE",
	ExitInternalHandlerMissing:     "INTERNAL_HANDLER_MISSING",
	ExitInternalUnreachableCode:    "INTERNAL_UNREACHABLE_CODE",
	ExitInternalConfigDesync:       "INTERNAL_CONFIG_DESYNC",
	ExitInternalDBDesync:           "INTERNAL_DB_DESYNC",
	ExitInternalCacheDesync:        "INTERNAL_CACHE_DESYNC",
	ExitInternalCorruption:         "INTERNAL_CORRUPTION",
	ExitInternalUnknownError:       "INTERNAL_UNKNOWN_ERROR",
}

// String returns the published name of the exit code.
func (e ExitCode) String() string {
	if name, ok := exitNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsSuccess reports whether the exit code is in the success band.
func (e ExitCode) IsSuccess() bool {
	return e >= 0 && e <= 9
}

// Int returns the value passed to os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}
