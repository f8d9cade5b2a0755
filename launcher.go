package authkit

import "context"

// Launcher abstracts the platform's external browser / app hand-off surface.
// The mobile shell provides the real implementation; tests use fakes.
type Launcher interface {
	// CanOpenURL reports whether the platform is able to open the URL.
	CanOpenURL(ctx context.Context, url string) (bool, error)

	// OpenURL hands the URL to the external browser or app. It may fail
	// after CanOpenURL succeeded, for example when the user dismisses the
	// hand-off prompt.
	OpenURL(ctx context.Context, url string) error

	// SubscribeAppLinks registers a handler for incoming app-link URLs and
	// returns a function that removes the registration.
	SubscribeAppLinks(handler func(url string)) (unsubscribe func())
}
