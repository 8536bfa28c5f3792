package apperr

var (
	// Domain errors — used by the turn service and stores
	ErrRoomNotFound        = NotFound("room not found")
	ErrTurnInFlight        = FailedPrecondition("another turn is already in flight")
	ErrAnswerNotConfigured = Configuration("answer service endpoint is not configured")
	ErrSessionKeyMissing   = Configuration("room has no remote session key")
)

func ErrRemoteCall(cause error) error {
	return Wrap(CodeRemoteCall, "answer service call failed", cause)
}

func ErrPersistence(cause error) error {
	return Wrap(CodePersistence, "persisting chat state failed", cause)
}
