package aes

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Job is one independent (block, key) pair for EncryptBlocks or DecryptBlocks.
type Job struct {
	Block []byte
	Key   []byte
}

// EncryptBlocks encrypts every job on up to workers goroutines and returns the
// results in job order. workers <= 0 uses one goroutine per CPU. The first
// failing job or a cancelled ctx stops the batch and no results are returned.
func EncryptBlocks(ctx context.Context, jobs []Job, workers int) ([][]byte, error) {
	return runBatch(ctx, jobs, workers, EncryptBlock)
}

// DecryptBlocks is the decrypting counterpart of EncryptBlocks.
func DecryptBlocks(ctx context.Context, jobs []Job, workers int) ([][]byte, error) {
	return runBatch(ctx, jobs, workers, DecryptBlock)
}

func runBatch(ctx context.Context, jobs []Job, workers int, fn func(block, key []byte) ([]byte, error)) ([][]byte, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(jobs) < workers {
		workers = len(jobs)
	}

	results := make([][]byte, len(jobs))

	var counter atomic.Uint64
	eg, ctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for {
				i := counter.Add(1) - 1
				if i >= uint64(len(jobs)) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				out, err := fn(jobs[i].Block, jobs[i].Key)
				if err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
				results[i] = out
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
