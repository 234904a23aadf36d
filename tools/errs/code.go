package errs

// API error codes. 1xxx auth, 2xxx request shape, 3xxx domain.
const (
	CodeTokenInvalid   = 1001
	CodeTokenExpired   = 1002
	CodeBadCredentials = 1003

	CodeBadRequest = 2001

	CodeUserExists   = 3001
	CodeUserNotFound = 3002
)

var (
	ErrTokenInvalid   = NewCodeError(CodeTokenInvalid, "invalid access token")
	ErrTokenExpired   = NewCodeError(CodeTokenExpired, "access token expired")
	ErrBadCredentials = NewCodeError(CodeBadCredentials, "invalid credentials")

	ErrBadRequest = NewCodeError(CodeBadRequest, "bad request")

	ErrUserExists   = NewCodeError(CodeUserExists, "username or email already taken")
	ErrUserNotFound = NewCodeError(CodeUserNotFound, "user not found")
)
