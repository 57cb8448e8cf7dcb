package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/codecbench/corpus"
	"github.com/arloliu/codecbench/report"
	"github.com/arloliu/codecbench/stats"
)

const (
	directionCompress   = "compress"
	directionDecompress = "decompress"
)

// passResult is the outcome of one full pass over a batch.
type passResult struct {
	frames         [][]byte
	decoded        [][]byte
	compressed     int
	compressTime   time.Duration
	decompressTime time.Duration
}

// runPass compresses every payload, then decompresses that same pass's
// frames. Times are the sums of the per-call wall-clock times.
func runPass(c passCodec, payloads [][]byte) (passResult, error) {
	res := passResult{
		frames:  make([][]byte, len(payloads)),
		decoded: make([][]byte, len(payloads)),
	}

	for i, p := range payloads {
		start := time.Now()
		frame, err := c.Compress(p)
		res.compressTime += time.Since(start)
		if err != nil {
			return res, fmt.Errorf("compress payload %d: %w", i, err)
		}
		res.frames[i] = frame
		res.compressed += len(frame)
	}

	for i, f := range res.frames {
		start := time.Now()
		out, err := c.Decompress(f)
		res.decompressTime += time.Since(start)
		if err != nil {
			return res, fmt.Errorf("decompress payload %d: %w", i, err)
		}
		res.decoded[i] = out
	}

	return res, nil
}

// verify checks every decoded payload of a pass against the original.
func verify(batch string, c passCodec, payloads, decoded [][]byte) error {
	for i, orig := range payloads {
		if !c.Equivalent(orig, decoded[i]) {
			return &RoundTripMismatchError{
				Batch:           batch,
				Codec:           c.Name(),
				Index:           i,
				OriginalLen:     len(orig),
				DecompressedLen: len(decoded[i]),
			}
		}
	}

	return nil
}

// measure drives the warm-up and timed passes of one codec over one batch.
// The first timed pass is verified and supplies the compressed size. On error
// the returned state is the stage that failed.
func (r *Runner) measure(ctx context.Context, batch *corpus.BatchCorpus, c passCodec) (report.CodecResult, State, error) {
	name := batch.Descriptor.Name()

	if r.warmup > 0 {
		r.logState(name, c.Name(), Warming)
	}
	for i := range r.warmup {
		if err := ctx.Err(); err != nil {
			return report.CodecResult{}, Warming, err
		}
		if _, err := runPass(c, batch.Payloads); err != nil {
			return report.CodecResult{}, Warming, fmt.Errorf("warm-up pass %d: %w", i, err)
		}
	}

	r.logState(name, c.Name(), Measuring)
	compTimes := make([]time.Duration, 0, r.iterations)
	decompTimes := make([]time.Duration, 0, r.iterations)
	compressed := 0

	for i := range r.iterations {
		if err := ctx.Err(); err != nil {
			return report.CodecResult{}, Measuring, err
		}

		pass, err := runPass(c, batch.Payloads)
		if err != nil {
			return report.CodecResult{}, Measuring, fmt.Errorf("pass %d: %w", i, err)
		}

		if i == 0 {
			compressed = pass.compressed
			if err := verify(name, c, batch.Payloads, pass.decoded); err != nil {
				return report.CodecResult{}, Measuring, err
			}
			r.logState(name, c.Name(), Verified)
		}

		compTimes = append(compTimes, pass.compressTime)
		decompTimes = append(decompTimes, pass.decompressTime)
		r.telemetry.RecordPass(ctx, batch.Descriptor.Dataset, c.Name(), directionCompress, pass.compressTime, batch.TotalBytes)
		r.telemetry.RecordPass(ctx, batch.Descriptor.Dataset, c.Name(), directionDecompress, pass.decompressTime, batch.TotalBytes)
	}

	return report.CodecResult{
		TotalBytes:       compressed,
		CompressionRatio: report.Ratio(batch.TotalBytes, compressed),
		Compression:      stats.FromDurations(compTimes, batch.TotalBytes),
		Decompression:    stats.FromDurations(decompTimes, batch.TotalBytes),
	}, Verified, nil
}
