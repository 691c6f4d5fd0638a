package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nstehr/abilityc/script"
)

var (
	batchDir        string
	batchOut        string
	batchWorkers    int
	batchProvenance string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compile every input file in a directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		files, err := inputFiles(batchDir)
		if err != nil {
			return err
		}
		if batchOut == "" {
			batchOut = filepath.Join(batchDir, "scripts")
		}
		if err := os.MkdirAll(batchOut, 0o755); err != nil {
			return err
		}
		workers := batchWorkers
		if workers <= 0 {
			workers = rt.cfg.Compiler.Workers
		}

		runID := uuid.NewString()
		log := rt.logger.With(zap.String("run", runID))
		log.Info("batch started", zap.Int("inputs", len(files)), zap.Int("workers", workers))
		start := time.Now()

		var (
			mu      sync.Mutex
			summary = batchSummary{RunID: runID, Results: map[string]string{}}
		)
		record := func(name, outcome string) {
			mu.Lock()
			defer mu.Unlock()
			summary.Results[name] = outcome
		}

		// Individual failures are recorded, never returned, so one bad input
		// does not cancel the rest of the run.
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(workers)
		for _, path := range files {
			g.Go(func() error {
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				raw, err := os.ReadFile(path)
				if err != nil {
					record(name, "error: "+err.Error())
					return nil
				}
				in, err := decodeInput(path, raw)
				if err != nil {
					record(name, "error: "+err.Error())
					return nil
				}
				res := rt.compiler.Compile(ctx, in, batchProvenance)
				if res.Script == "" {
					record(name, "error: "+res.Error)
					return nil
				}
				if err := os.WriteFile(filepath.Join(batchOut, name+".yaml"), []byte(res.Script), 0o644); err != nil {
					record(name, "error: "+err.Error())
					return nil
				}
				switch {
				case res.UsedModel:
					record(name, "model")
				case res.Error != "":
					log.Warn("compiled with diagnostic", zap.String("input", name), zap.String("error", res.Error))
					record(name, "heuristic: "+res.Error)
				default:
					record(name, "heuristic")
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		summary.Elapsed = time.Since(start).Round(time.Millisecond).String()
		raw, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(batchOut, "summary.json"), raw, 0o644); err != nil {
			return err
		}
		counts := summary.counts()
		log.Info("batch finished",
			zap.String("elapsed", summary.Elapsed),
			zap.Int("model", counts["model"]),
			zap.Int("heuristic", counts["heuristic"]),
			zap.Int("failed", counts["error"]),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d model, %d heuristic, %d failed\n",
			runID, counts["model"], counts["heuristic"], counts["error"])
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", ".", "directory of *.json / *.yaml inputs")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "output directory (default <dir>/scripts)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent compiles (default from config)")
	batchCmd.Flags().StringVar(&batchProvenance, "provenance", script.CreatedByModel, "tag for model-assisted scripts")
}

type batchSummary struct {
	RunID   string            `json:"runId"`
	Elapsed string            `json:"elapsed"`
	Results map[string]string `json:"results"`
}

// counts buckets outcomes by their leading word.
func (s batchSummary) counts() map[string]int {
	out := map[string]int{}
	for _, r := range s.Results {
		kind, _, _ := strings.Cut(r, ":")
		out[kind]++
	}
	return out
}

func inputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
