// Package trainer runs data-parallel epochs over a network: each worker
// trains a private clone on a contiguous batch, then the clones are merged
// back into the master network.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/nnet/internal/nn"
	"github.com/born-ml/nnet/internal/parallel"
)

// ErrTooFewSamples is returned when there are fewer samples than workers.
var ErrTooFewSamples = errors.New("trainer: fewer samples than workers")

// Config holds configuration for a Trainer.
type Config struct {
	LearningRate   float64      // Step size (DefaultConfig: 0.1)
	Epochs         int          // Number of epochs (DefaultConfig: 1)
	Workers        int          // Parallel workers (default: runtime.NumCPU())
	Verbose        bool         // Log the mean loss after every epoch
	CheckpointPath string       // Save the merged network here after every epoch ("" = never)
	Merge          Merge        // Merge strategy (default: MergePairwise)
	Logger         *slog.Logger // Logger for verbose output (default: slog.Default())
}

// DefaultConfig returns a configuration using every CPU.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		Epochs:       1,
		Workers:      runtime.NumCPU(),
		Merge:        MergePairwise,
		Logger:       slog.Default(),
	}
}

// Trainer performs parallel per-sample gradient descent with one merge per epoch.
//
// Example:
//
//	cfg := trainer.DefaultConfig()
//	cfg.Epochs = 10
//	cfg.CheckpointPath = "model.nnet"
//	losses, err := trainer.New(cfg).Run(net, nn.NewMSE(), images, targets)
type Trainer struct {
	cfg Config
}

// New creates a Trainer. Zero Workers, Merge and Logger fall back to the
// DefaultConfig values; LearningRate and Epochs are used as given, so start
// from DefaultConfig to get the defaults for those.
func New(cfg Config) *Trainer {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Merge == nil {
		cfg.Merge = defaults.Merge
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}
	return &Trainer{cfg: cfg}
}

// Config returns the effective configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Run trains net in place and returns the mean worker loss of every epoch.
//
// Each epoch splits the samples into Workers contiguous batches of
// len(samples)/Workers samples; the remainder is not used. A failing or
// panicking worker aborts the run with the losses of the completed epochs.
func (t *Trainer) Run(net *nn.Network, loss nn.Loss, samples, targets [][]float64) ([]float64, error) {
	if len(samples) != len(targets) {
		return nil, fmt.Errorf("trainer: %d samples but %d targets: %w", len(samples), len(targets), nn.ErrShape)
	}

	if t.cfg.Epochs < 0 {
		return nil, fmt.Errorf("trainer: negative epoch count %d", t.cfg.Epochs)
	}

	workers := t.cfg.Workers
	batchSize := len(samples) / workers
	if batchSize == 0 {
		return nil, fmt.Errorf("%w: %d samples for %d workers", ErrTooFewSamples, len(samples), workers)
	}

	losses := make([]float64, 0, t.cfg.Epochs)
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		mean, err := t.epoch(net, loss, samples, targets, batchSize)
		if err != nil {
			return losses, fmt.Errorf("trainer: epoch %d: %w", epoch, err)
		}
		losses = append(losses, mean)

		if t.cfg.Verbose {
			t.cfg.Logger.Info("epoch complete",
				"epoch", epoch, "epochs", t.cfg.Epochs, "loss", mean, "workers", workers)
		}

		if t.cfg.CheckpointPath != "" {
			info := nn.CheckpointInfo{
				Epoch:        epoch,
				Loss:         mean,
				LearningRate: t.cfg.LearningRate,
				Workers:      workers,
			}
			if err := nn.SaveCheckpoint(t.cfg.CheckpointPath, net, info); err != nil {
				return losses, fmt.Errorf("trainer: epoch %d: %w", epoch, err)
			}
		}
	}
	return losses, nil
}

// epoch trains one clone per batch, merges the clones into net and returns
// the mean of the worker losses.
func (t *Trainer) epoch(net *nn.Network, loss nn.Loss, samples, targets [][]float64, batchSize int) (float64, error) {
	workers := t.cfg.Workers
	clones := make([]*nn.Network, workers)
	for i := range clones {
		clones[i] = net.Clone()
	}
	workerLoss := make([]float64, workers)

	err := parallel.Run(workers, func(i int) error {
		lo, hi := i*batchSize, (i+1)*batchSize
		l, err := clones[i].Train(loss, samples[lo:hi], targets[lo:hi], t.cfg.LearningRate, 1, false)
		if err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
		workerLoss[i] = l[0]
		return nil
	})
	if err != nil {
		return 0, err
	}

	merged, err := t.cfg.Merge(clones)
	if err != nil {
		return 0, err
	}
	dst, src := net.Params(), merged.Params()
	if len(dst) != len(src) {
		return 0, fmt.Errorf("merge returned %d parameters, expected %d: %w", len(src), len(dst), nn.ErrShape)
	}
	for i := range dst {
		if len(dst[i].Data) != len(src[i].Data) {
			return 0, fmt.Errorf("merge returned %s with %d values, expected %d: %w",
				src[i].Name, len(src[i].Data), len(dst[i].Data), nn.ErrShape)
		}
		copy(dst[i].Data, src[i].Data)
	}

	return floats.Sum(workerLoss) / float64(workers), nil
}
