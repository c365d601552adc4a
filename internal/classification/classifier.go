package classification

import "context"

// Classifier suggests short topical labels for a piece of text.
type Classifier interface {
	// Suggest returns zero or more label strings for text. An empty result
	// is not an error. Implementations must honour ctx cancellation.
	Suggest(ctx context.Context, text string) ([]string, error)
}

// ClassifierFunc adapts an ordinary function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) ([]string, error)

// Suggest implements Classifier.
func (f ClassifierFunc) Suggest(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}
