// SPDX-License-Identifier: EPL-2.0

package brain

import (
	"context"
	"errors"
	"fmt"
)

// Status is the outcome of a background corpus operation.
type Status int

const (
	Completed Status = iota
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result reports how a background operation ended. Err is set for
// Cancelled (the context error) and Failed.
type Result struct {
	Status Status
	Err    error
}

func (r Result) OK() bool { return r.Status == Completed }

func resultOf(err error) Result {
	switch {
	case err == nil:
		return Result{Status: Completed}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Result{Status: Cancelled, Err: err}
	default:
		return Result{Status: Failed, Err: err}
	}
}

// Progress receives the file being processed and the number of chunks
// done out of the total.
type Progress func(name string, current, total int)

// RechunkAllFiles re-cuts every file at chunkSize from its stored audio
// and re-analyses the result. Nothing changes unless the whole pass
// completes; cancellation is checked between chunks.
func (b *Brain) RechunkAllFiles(ctx context.Context, chunkSize int, progress Progress) Result {
	if chunkSize < 2 {
		return Result{Status: Failed, Err: fmt.Errorf("%w: chunk size %d", ErrInvalidConfig, chunkSize)}
	}

	b.ops.Lock()
	defer b.ops.Unlock()

	return b.rebuild(ctx, "rechunk", chunkSize, progress)
}

// ReanalyzeAllChunks recomputes every chunk at the current chunk size and
// window, typically after SetWindow.
func (b *Brain) ReanalyzeAllChunks(ctx context.Context, progress Progress) Result {
	b.ops.Lock()
	defer b.ops.Unlock()

	return b.rebuild(ctx, "reanalyze", b.chunkSize, progress)
}

// rebuild recomputes all chunks from stored audio and swaps them in.
// The caller holds ops.
func (b *Brain) rebuild(ctx context.Context, op string, chunkSize int, progress Progress) Result {
	files, chunks, err := b.chunkFiles(ctx, b.files, chunkSize, progress)
	if err != nil {
		res := resultOf(err)
		b.log.Info(op+" stopped", "status", res.Status, "err", err)
		return res
	}

	b.mu.Lock()
	b.files, b.chunks = files, chunks
	b.chunkSize = chunkSize
	b.mu.Unlock()

	b.log.Info(op+" done", "files", len(files), "chunks", len(chunks), "chunk_size", chunkSize)

	return Result{Status: Completed}
}

// chunkFiles builds fresh file entries and chunks for src at chunkSize
// with the current window. The caller holds ops.
func (b *Brain) chunkFiles(ctx context.Context, src []*file, chunkSize int, progress Progress) ([]*file, []*Chunk, error) {
	total := 0
	for _, f := range src {
		n, _ := chunkLayout(len(f.audio[0]), chunkSize)
		total += n
	}

	an := NewAnalyzer(b.sampleRate, chunkSize, b.win)
	files := make([]*file, 0, len(src))
	chunks := make([]*Chunk, 0, total)
	done := 0

	for _, f := range src {
		tick := func() {
			done++
			if progress != nil {
				progress(f.name, done, total)
			}
		}

		fc, padding, err := an.split(ctx, f.audio, f.id, chunkSize, tick)
		if err != nil {
			return nil, nil, err
		}

		rebuilt := *f
		rebuilt.first = len(chunks)
		rebuilt.count = len(fc)
		rebuilt.tailPadding = padding
		files = append(files, &rebuilt)
		chunks = append(chunks, fc...)
	}

	return files, chunks, nil
}
