package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("This email already exists")
	ErrUsernameTaken      = errors.New("A user with that username already exists")
	ErrPasswordMismatch   = errors.New("Passwords isn't matched")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidLink        = errors.New("The confirmation link is invalid or has expired")
	ErrInvalidResetToken  = errors.New("Invalid or expired token")
	ErrInvalidRefresh     = errors.New("Token is invalid or expired")
	ErrWrongOldPassword   = errors.New("Your old password was entered incorrectly. Please enter it again.")
	ErrAlreadyVerified    = errors.New("Your email is already verified")
	ErrFollowSelf         = errors.New("You can't follow on yourself")
	ErrAlreadyFollowing   = errors.New("You're already followed on this user")

	ErrFolderNotFound   = errors.New("folder not found")
	ErrFolderNameExists = errors.New("folder with this name already exists")
	ErrSetNotFound      = errors.New("set not found")
	ErrInvalidSetType   = errors.New("set type must be card_set or test")
	ErrNotTestSet       = errors.New("set is not a test")

	ErrQuestionNotFound        = errors.New("question not found")
	ErrQuestionContentRequired = errors.New("Question must have text or image")
	ErrInsufficientAnswers     = errors.New("You must fill at least two answers")
	ErrCorrectAnswerNotFilled  = errors.New("Correct answer is not filled")
	ErrQuestionCreateFailed    = errors.New("Error during creating question")
	ErrUnsupportedImage        = errors.New("unsupported image type")
	ErrTooManyAnswers          = errors.New("A question can have at most four answers")

	ErrSessionNotFound     = errors.New("test session not found")
	ErrSessionConflict     = errors.New("test session was modified concurrently, retry the request")
	ErrSessionNotCompleted = errors.New("test session is not completed yet")
	ErrNoQuestionServed    = errors.New("no question has been served in this session yet")
)
