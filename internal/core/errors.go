package core

// Error codes for domain errors.
const (
	ErrCodeChannelNotFound   = "channel_not_found"
	ErrCodeInvalidChatType   = "invalid_chat_type"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeAlreadyConnected  = "already_connected"
	ErrCodeNameTaken         = "name_taken"
	ErrCodeCapacityReached   = "capacity_reached"
	ErrCodeIssuanceExhausted = "issuance_exhausted"
	ErrCodeBadSuperpassword  = "bad_superpassword"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func channelNotFound() *CoreError {
	return coreError(ErrCodeChannelNotFound, "channel not found")
}

func invalidChatType(msg string) *CoreError {
	return coreError(ErrCodeInvalidChatType, msg)
}

func unauthorized() *CoreError {
	return coreError(ErrCodeUnauthorized, "you are not authorized to message in this channel")
}

func alreadyConnected() *CoreError {
	return coreError(ErrCodeAlreadyConnected, "you are already connected")
}

func nameTaken(name string) *CoreError {
	return coreError(ErrCodeNameTaken, "display name "+name+" is taken, use another name")
}

func capacityReached() *CoreError {
	return coreError(ErrCodeCapacityReached, "maximum users reached")
}

func badSuperpassword() *CoreError {
	return coreError(ErrCodeBadSuperpassword, "superpassword does not match")
}
