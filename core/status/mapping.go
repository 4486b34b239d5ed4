package status

// exitTable is the one place a Code becomes an ExitCode.
var exitTable = map[Code]ExitCode{
	OK:             ExitSuccess,
	OKNoData:       ExitSuccessEmptyResult,
	PartialSuccess: ExitSuccessPartialScope,

	ConfigMissing:    ExitConfigValueMissing,
	ConfigInvalid:    ExitConfigValueInvalid,
	ConfigConflict:   ExitConfigValueInvalid,
	ConfigUnreadable: ExitConfigFileInvalid,

	AuthFailed:         ExitAPIUnauthorized,
	AuthAPIKeyMissing:  ExitConfigAPIKeyMissing,
	PermissionDenied:   ExitAPIForbidden,
	InvalidAPIKey:      ExitConfigAPIKeyInvalid,
	LicenseNotEntitled: ExitAPIForbidden,

	TransportTimeout:           ExitNetworkTimeout,
	TransportDNSFailure:        ExitNetworkDNSFailure,
	TransportSSLError:          ExitNetworkTLSFailure,
	TransportProxyError:        ExitNetworkProxyFailure,
	TransportConnectionRefused: ExitNetworkConnectionRefused,
	TransportConnectionReset:   ExitNetworkInterrupted,
	TransportConnectionFailed:  ExitNetworkUnreachable,
	TransportUnknown:           ExitNetworkUnknownError,

	APIUnauthorized:       ExitAPIUnauthorized,
	APIForbidden:          ExitAPIForbidden,
	APINotFound:           ExitAPINotFound,
	APIRateLimited:        ExitNetworkRateLimited,
	APIServerError:        ExitAPIServerError,
	APIBadRequest:         ExitAPIBadRequest,
	APIUnexpectedResponse: ExitNetworkBadResponse,
	APISchemaChanged:      ExitAPISchemaChanged,

	PayloadParseError:      ExitAPISchemaChanged,
	PayloadValidationError: ExitIngestDataInvalid,
	SchemaMismatch:         ExitIngestSchemaMappingFailed,
	DataTruncation:         ExitIngestDataInvalid,
	DuplicateRecord:        ExitIngestDuplicateKey,
	RecordKeyMissing:       ExitIngestDataInvalid,

	DBConnectionFailed:    ExitDBConnectionFailed,
	DBAuthFailed:          ExitDBAuthFailed,
	DBTransactionFailed:   ExitDBTransactionFailed,
	DBConstraintViolation: ExitDBConstraintViolation,
	DBInsertFailed:        ExitDBWriteFailed,
	DBReadFailed:          ExitDBReadFailed,
	DBTimeout:             ExitDBTimeout,
	DBSchemaMissing:       ExitDBSchemaMissing,
	DBSchemaMismatch:      ExitDBSchemaMismatch,

	IngestionFetchFailed:     ExitIngestStartFailed,
	IngestionWriteFailed:     ExitDBWriteFailed,
	IngestionPartialWrite:    ExitIngestPartialFailure,
	IngestionAborted:         ExitIngestAborted,
	IngestionReconcileFailed: ExitIngestStateCorrupt,
	NoRecordsReturned:        ExitSuccessEmptyResult,
	RecordWriteFailed:        ExitDBWriteFailed,
	FlushFailed:              ExitDBWriteFailed,
	BackfillFailed:           ExitIngestUnknownError,

	ExecutionInterrupted:        ExitSuccessOperatorExit,
	ExecutionUnhandledException: ExitRuntimeException,
	ExecutionDispatchFailed:     ExitInternalDispatchFailure,
	ExecutionInvalidArgument:    ExitCLIInvalidArgument,

	InternalInvariantViolation: ExitInternalInvariantViolation,
	InternalUnreachable:        ExitInternalUnreachableCode,
}

// ExitFor converts a status code into the process exit code. Codes outside
// the published set map to INTERNAL_UNKNOWN_ERROR.
func ExitFor(code Code) ExitCode {
	if exit, ok := exitTable[code]; ok {
		return exit
	}
	return ExitInternalUnknownError
}

// ExitForError resolves the exit code of an arbitrary error. A nil error is
// success; an error without a typed code is a runtime exception.
func ExitForError(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if code, ok := CodeOf(err); ok {
		return ExitFor(code)
	}
	return ExitRuntimeException
}

// IsSuccess reports whether the code maps to a success-band exit code.
func (c Code) IsSuccess() bool {
	return ExitFor(c).IsSuccess()
}
