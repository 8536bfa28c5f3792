package apperr

type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeConfiguration      Code = "CONFIGURATION"
	CodeRemoteCall         Code = "REMOTE_CALL"
	CodePersistence        Code = "PERSISTENCE"
)
