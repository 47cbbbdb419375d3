package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lienwise/bidengine/internal/engine"
	"github.com/lienwise/bidengine/internal/ingest"
	"github.com/lienwise/bidengine/internal/retry"
	"github.com/lienwise/bidengine/internal/store"
)

var (
	batchInput string
	batchLimit int
	batchDry   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate a JSONL stream of parcel fact sheets",
	Long:  "Reads fact sheets one per line, evaluates them across a worker pool and persists each decision record. Evaluations are independent, so parallelism is safe by construction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine()
		if err != nil {
			return err
		}

		var st store.Store
		if !batchDry {
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		f, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrapf(err, "open %s", batchInput)
		}
		defer f.Close()

		return processBatch(ctx, f, eng, st)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "fact sheets as JSON lines")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max fact sheets to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchDry, "dry-run", false, "evaluate without persisting")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// processBatch fans fact-sheet lines out over an errgroup worker pool.
// Malformed lines are counted and skipped; they never abort the batch.
func processBatch(ctx context.Context, f *os.File, eng *engine.Engine, st store.Store) error {
	limiter := rate.NewLimiter(rate.Limit(cfg.Batch.EvaluationsPerSec), 1)

	var evaluated, failed, saved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Concurrency)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	lines := 0
	for scanner.Scan() {
		if batchLimit > 0 && lines >= batchLimit {
			break
		}
		lines++

		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			sheet, err := ingest.Decode(line)
			if err != nil {
				failed.Add(1)
				zap.L().Warn("batch: fact sheet rejected", zap.Error(err))
				return nil
			}

			record, err := eng.Evaluate(gctx, sheet)
			if err != nil {
				failed.Add(1)
				zap.L().Warn("batch: evaluation failed",
					zap.String("parcel_id", sheet.ParcelID),
					zap.Error(err),
				)
				return nil
			}
			evaluated.Add(1)

			if st != nil {
				_, err := retry.Value(gctx, retry.DefaultConfig(), "save decision",
					func(ctx context.Context) (string, error) {
						return st.SaveDecision(ctx, record)
					})
				if err != nil {
					zap.L().Error("batch: save failed",
						zap.String("parcel_id", sheet.ParcelID),
						zap.Error(err),
					)
					return nil
				}
				saved.Add(1)
			}
			return nil
		})
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "batch: read input")
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch: worker pool")
	}

	zap.L().Info("batch complete",
		zap.Int("lines", lines),
		zap.Int64("evaluated", evaluated.Load()),
		zap.Int64("saved", saved.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
