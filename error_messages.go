package authkit

import "fmt"

// DefaultErrorMessage is shown for unclassified failures and for errors that
// did not originate in this package.
const DefaultErrorMessage = "Sign-in failed. Please try again in a moment."

// messageTemplate renders a user-facing string for an error code. Provider
// name substitution applies only where the copy calls for it.
type messageTemplate func(providerName string) string

var errorMessages = map[ErrorCode]messageTemplate{
	ErrCodeOAuthDenied: func(p string) string {
		return fmt.Sprintf("%s sign-in was denied. Please try a different account.", p)
	},
	ErrCodeOAuthCancelled: func(string) string {
		return "Sign-in was cancelled. Try again to continue."
	},
	ErrCodeNetworkError: func(string) string {
		return "Please check your network connection and try again."
	},
	ErrCodeProviderUnavailable: func(p string) string {
		return fmt.Sprintf("Could not open the %s sign-in window. Please try again in a moment.", p)
	},
	ErrCodeTimeout: func(string) string {
		return "The sign-in is taking too long. Please try again."
	},
	ErrCodeBackendError: func(string) string {
		return "Something went wrong while signing you in. Please try again in a moment."
	},
	ErrCodeConfigError: func(string) string {
		return "Sign-in is not fully configured. Please contact support."
	},
	ErrCodeNotImplemented: func(p string) string {
		return fmt.Sprintf("%s sign-in is coming soon.", p)
	},
	ErrCodeStateMismatch: func(string) string {
		return "Sign-in verification failed. Please try again."
	},
	ErrCodeParsingError: func(string) string {
		return "Could not process the sign-in response. Please try again in a moment."
	},
	ErrCodeUnknown: func(string) string {
		return DefaultErrorMessage
	},
}

// UserMessage maps an error to the single string the UI renders for it.
// Non-AuthError values and unmapped codes fall back to DefaultErrorMessage.
func UserMessage(providerID string, err error) string {
	ae := AsAuthError(err)
	if ae == nil {
		return DefaultErrorMessage
	}

	tmpl, ok := errorMessages[ae.Code]
	if !ok {
		return DefaultErrorMessage
	}
	return tmpl(ProviderDisplayName(providerID))
}
