// Package utils holds small helpers shared by the service entrypoints.
package utils //nolint:revive // var-naming: utils is an acceptable package name for shared utilities

import (
	"context"
	"sync"
)

// MergeErrorChans fans the given channels into one. Nil channels are skipped
// and nil errors are dropped. The output closes once every input has closed.
func MergeErrorChans(channels ...<-chan error) <-chan error {
	out := make(chan error, len(channels))
	var wg sync.WaitGroup

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		wg.Add(1)
		go func(c <-chan error) {
			defer wg.Done()
			for err := range c {
				if err != nil {
					out <- err
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// WaitForError blocks until ctx is done or errs yields an error.
// It returns nil when ctx ends first or errs closes without an error.
func WaitForError(ctx context.Context, errs <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-errs:
		if !ok {
			return nil
		}
		return err
	}
}
