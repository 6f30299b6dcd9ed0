package apierr

import "strconv"

// ServerCode is the application-level code the object server puts in the
// "code" field of its error documents.
type ServerCode int

const (
	CodeNone                ServerCode = 0
	CodeInvalidParameters   ServerCode = 601
	CodeMissingParameters   ServerCode = 602
	CodeInvalidCredentials  ServerCode = 611
	CodeUnknownAccount      ServerCode = 612
	CodeExistingAccount     ServerCode = 613
	CodeAccessDenied        ServerCode = 614
	CodeExpiredRefreshToken ServerCode = 615
	CodeInvalidHost         ServerCode = 616
	CodeRealmNotFound       ServerCode = 617
	CodeUnknownUser         ServerCode = 618
	CodeWrongRealmType      ServerCode = 619
)

var serverCodeNames = map[ServerCode]string{
	CodeInvalidParameters:   "INVALID_PARAMETERS",
	CodeMissingParameters:   "MISSING_PARAMETERS",
	CodeInvalidCredentials:  "INVALID_CREDENTIALS",
	CodeUnknownAccount:      "UNKNOWN_ACCOUNT",
	CodeExistingAccount:     "EXISTING_ACCOUNT",
	CodeAccessDenied:        "ACCESS_DENIED",
	CodeExpiredRefreshToken: "EXPIRED_REFRESH_TOKEN",
	CodeInvalidHost:         "INVALID_HOST",
	CodeRealmNotFound:       "REALM_NOT_FOUND",
	CodeUnknownUser:         "UNKNOWN_USER",
	CodeWrongRealmType:      "WRONG_REALM_TYPE",
}

func (c ServerCode) String() string {
	if c == CodeNone {
		return "NONE"
	}
	if name, ok := serverCodeNames[c]; ok {
		return name
	}
	return "CODE_" + strconv.Itoa(int(c))
}

// Known reports whether c is one of the codes listed above.
func (c ServerCode) Known() bool {
	_, ok := serverCodeNames[c]
	return ok
}
