package llm

import "context"

// Result is the terminal outcome of a fragment stream.
type Result struct {
	Response Response
	Err      error
}

// Collect blocks until the model finished and returns the full text.
func Collect(ctx context.Context, m Model, req Request) (string, error) {
	resp, err := m.StreamResponse(ctx, req, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Stream runs the model in the background. Fragments arrive on the first
// channel in yield order; it is closed before the single Result is sent.
// Callers must drain fragments (or cancel ctx) to let the producer finish.
func Stream(ctx context.Context, m Model, req Request) (<-chan string, <-chan Result) {
	fragments := make(chan string, 16)
	done := make(chan Result, 1)

	go func() {
		defer close(done)
		resp, err := m.StreamResponse(ctx, req, func(delta string) error {
			select {
			case fragments <- delta:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(fragments)
		done <- Result{Response: resp, Err: err}
	}()

	return fragments, done
}
