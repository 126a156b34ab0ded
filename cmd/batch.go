package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/quote"
)

var (
	batchDir      string
	batchOutDir   string
	batchLimit    int
	batchApprove  bool
	batchDiscount float64
	batchCurrency string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Quote every .txt RFQ in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initQuoteEnv(ctx, cfg, "quote")
		if err != nil {
			return err
		}

		files, err := listRFQFiles(batchDir)
		if err != nil {
			return err
		}

		outDir := batchOutDir
		if outDir == "" {
			outDir = batchDir
		}

		return processBatch(ctx, env.Service, files, batchLimit, outDir, quote.Request{
			DiscountPct:    batchDiscount,
			FreightTaxable: cfg.Quote.FreightTaxable,
			TargetCurrency: batchCurrency,
			Approve:        batchApprove,
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of .txt RFQs (required)")
	_ = batchCmd.MarkFlagRequired("dir")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for quote JSON files (default --dir)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of RFQs to process")
	batchCmd.Flags().BoolVar(&batchApprove, "approve", false, "resolve review lines to their top candidate")
	batchCmd.Flags().Float64Var(&batchDiscount, "discount", 0, "header discount percent applied to every quote")
	batchCmd.Flags().StringVar(&batchCurrency, "currency", "", "convert totals to this currency")
	rootCmd.AddCommand(batchCmd)
}

// batchQuoter is the part of *quote.Service the batch command uses.
type batchQuoter interface {
	GenerateBatch(ctx context.Context, reqs []quote.Request) []quote.BatchResult
}

// listRFQFiles returns the .txt files in dir, sorted by name.
func listRFQFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read dir %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// processBatch applies limit, quotes each file using tmpl for the shared
// options, and writes <name>.quote.json to outDir for every success.
func processBatch(ctx context.Context, q batchQuoter, files []string, limit int, outDir string, tmpl quote.Request) error {
	if len(files) == 0 {
		zap.L().Info("no RFQ files found")
		return nil
	}

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	reqs := make([]quote.Request, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "batch: read %s", path)
		}
		req := tmpl
		req.Text = string(data)
		req.Source = filepath.Base(path)
		req.IDPrefix = quote.PrefixText
		reqs = append(reqs, req)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "batch: create %s", outDir)
	}

	zap.L().Info("processing batch", zap.Int("files", len(reqs)), zap.String("out_dir", outDir))

	var failed int
	for _, r := range q.GenerateBatch(ctx, reqs) {
		if r.Err != nil {
			failed++
			continue
		}
		name := strings.TrimSuffix(r.Source, filepath.Ext(r.Source)) + ".quote.json"
		data, err := json.MarshalIndent(r.Quote, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "batch: encode %s", r.Source)
		}
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
			return eris.Wrapf(err, "batch: write %s", name)
		}
	}

	if failed > 0 {
		return eris.Errorf("batch: %d of %d RFQs failed", failed, len(reqs))
	}
	return nil
}
