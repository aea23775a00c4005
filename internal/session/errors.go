package session

// ErrorCode is the closed set of error kinds a Session operation can
// report (spec.md §7). It intentionally excludes anything not in that
// table: new failure modes must be mapped onto one of these, not added
// ad hoc.
type ErrorCode int

const (
	Success ErrorCode = iota
	RemoteError
	AccessDenied
	NetworkApiError
	NetworkWouldBlock
	NetworkNotConnected
	NetworkConnectionLost
	FilesystemFileNotFound
	FilesystemOpenStreamFailed
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "Success"
	case RemoteError:
		return "RemoteError"
	case AccessDenied:
		return "AccessDenied"
	case NetworkApiError:
		return "NetworkApiError"
	case NetworkWouldBlock:
		return "NetworkWouldBlock"
	case NetworkNotConnected:
		return "NetworkNotConnected"
	case NetworkConnectionLost:
		return "NetworkConnectionLost"
	case FilesystemFileNotFound:
		return "FilesystemFileNotFound"
	case FilesystemOpenStreamFailed:
		return "FilesystemOpenStreamFailed"
	default:
		return "Unknown"
	}
}

// Error is the error type every fallible Session operation returns. Code
// is always one of the closed ErrorCode values; Err, when present, carries
// the underlying cause for logging and is not part of the equality that
// errors.Is checks.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.String() + ": " + e.Err.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports Code equality, so callers can write
// errors.Is(err, session.ErrNetworkNotConnected) regardless of what the
// wrapped cause was.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Sentinel values for errors.Is comparisons. These carry no wrapped cause;
// use newError to attach one when returning a real failure.
var (
	ErrRemoteError                 = &Error{Code: RemoteError}
	ErrAccessDenied                = &Error{Code: AccessDenied}
	ErrNetworkApiError             = &Error{Code: NetworkApiError}
	ErrNetworkWouldBlock           = &Error{Code: NetworkWouldBlock}
	ErrNetworkNotConnected         = &Error{Code: NetworkNotConnected}
	ErrNetworkConnectionLost       = &Error{Code: NetworkConnectionLost}
	ErrFilesystemFileNotFound      = &Error{Code: FilesystemFileNotFound}
	ErrFilesystemOpenStreamFailed  = &Error{Code: FilesystemOpenStreamFailed}
)
