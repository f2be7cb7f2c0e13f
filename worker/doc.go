// Package worker provides the fixed-size goroutine pool that parses the
// files of a report in parallel.
//
// Jobs are plain closures and run in submission order as workers free up,
// which is what keeps a report's files starting in file-number order. The
// pool carries no result channel: a parse job delivers its output through
// whatever the closure captures, typically a per-file block stream.
//
// Example usage:
//
//	pool := worker.NewPool(4)
//	go func() {
//		defer pool.Close()
//		for _, f := range files {
//			if !pool.Submit(ctx, func() { parse(ctx, f) }) {
//				return
//			}
//		}
//	}()
//
// Close must come from the submitting side once it is done; it waits for
// the workers to drain.
package worker
