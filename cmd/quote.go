package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/ocr"
	"github.com/sells-group/quote-engine/internal/quote"
	"github.com/sells-group/quote-engine/internal/render"
	"github.com/sells-group/quote-engine/internal/rfq"
	"github.com/sells-group/quote-engine/internal/tabular"
)

var (
	quoteText           string
	quoteFile           string
	quoteImage          string
	quoteTable          string
	quoteDiscount       float64
	quoteCurrency       string
	quoteApprove        bool
	quoteFreightTaxable bool
	quoteFormat         string
	quoteOutput         string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Generate a quote for one RFQ",
	Example: `  quote-engine quote --text "pls quote 20mm flex conduit 600m"
  quote-engine quote --image rfq.pdf --approve --format pdf --output quote.pdf
  quote-engine quote --csv rfq.xlsx --currency USD --format xlsx --output quote.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := render.ParseFormat(quoteFormat)
		if err != nil {
			return err
		}

		env, err := initQuoteEnv(ctx, cfg, "quote")
		if err != nil {
			return err
		}

		in := rfqInput{Text: quoteText, File: quoteFile, Image: quoteImage, Table: quoteTable}
		text, prefix, source, err := in.read(ctx, env.OCR)
		if err != nil {
			return err
		}

		freightTaxable := cfg.Quote.FreightTaxable
		if cmd.Flags().Changed("freight-taxable") {
			freightTaxable = quoteFreightTaxable
		}

		q, err := env.Service.Generate(ctx, quote.Request{
			Text:           text,
			DiscountPct:    quoteDiscount,
			FreightTaxable: freightTaxable,
			TargetCurrency: quoteCurrency,
			Approve:        quoteApprove,
			Source:         source,
			IDPrefix:       prefix,
		})
		if err != nil {
			return eris.Wrap(err, "generate quote")
		}

		return writeQuote(cmd.OutOrStdout(), quoteOutput, func(w io.Writer) error {
			return render.Write(w, format, q)
		})
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteText, "text", "", "RFQ text")
	quoteCmd.Flags().StringVar(&quoteFile, "file", "", "path to a plain-text RFQ")
	quoteCmd.Flags().StringVar(&quoteImage, "image", "", "path to a scanned RFQ (PDF or image), read with OCR")
	quoteCmd.Flags().StringVar(&quoteTable, "csv", "", "path to a tabular RFQ (.csv or .xlsx) with description, qty and uom columns")
	quoteCmd.MarkFlagsMutuallyExclusive("text", "file", "image", "csv")
	quoteCmd.MarkFlagsOneRequired("text", "file", "image", "csv")
	quoteCmd.Flags().Float64Var(&quoteDiscount, "discount", 0, "header discount percent (0-100)")
	quoteCmd.Flags().StringVar(&quoteCurrency, "currency", "", "convert totals to this currency (default: base currency)")
	quoteCmd.Flags().BoolVar(&quoteApprove, "approve", false, "resolve review lines to their top candidate")
	quoteCmd.Flags().BoolVar(&quoteFreightTaxable, "freight-taxable", false, "include freight in the reported taxable amount (default from config)")
	quoteCmd.Flags().StringVar(&quoteFormat, "format", "json", "output format: json, csv, xlsx, pdf")
	quoteCmd.Flags().StringVarP(&quoteOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(quoteCmd)
}

// rfqInput names exactly one RFQ source.
type rfqInput struct {
	Text  string
	File  string
	Image string
	Table string
}

// read returns the RFQ text, the quote ID prefix for its channel, and a
// label for logs.
func (in rfqInput) read(ctx context.Context, ext ocr.Extractor) (string, string, string, error) {
	var (
		text, prefix, source string
		err                  error
	)
	switch {
	case in.Text != "":
		text, prefix, source = in.Text, quote.PrefixText, "cli"
	case in.File != "":
		var data []byte
		data, err = os.ReadFile(in.File)
		if err != nil {
			return "", "", "", eris.Wrap(err, "read rfq file")
		}
		text, prefix, source = string(data), quote.PrefixText, filepath.Base(in.File)
	case in.Image != "":
		if ocr.KindOf(in.Image) == ocr.KindUnsupported {
			return "", "", "", eris.Errorf("%s is not an image or PDF", in.Image)
		}
		var res ocr.Result
		res, err = ocr.Extract(ctx, ext, in.Image)
		if err != nil {
			return "", "", "", eris.Wrap(err, "ocr")
		}
		text = res.Text
		if res.Summary != "" {
			zap.L().Info("ocr complete", zap.String("file", in.Image), zap.String("summary", res.Summary))
		}
		prefix, source = quote.PrefixOCR, filepath.Base(in.Image)
	case in.Table != "":
		var t tabular.Table
		t, err = tabular.ReadFile(in.Table)
		if err != nil {
			return "", "", "", eris.Wrap(err, "read rfq table")
		}
		text, err = rfq.FlattenTable(t)
		if err != nil {
			return "", "", "", err
		}
		prefix, source = quote.PrefixCSV, filepath.Base(in.Table)
	default:
		return "", "", "", eris.New("one of --text, --file, --image or --csv is required")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", "", eris.Errorf("no RFQ text found in %s", source)
	}
	return text, prefix, source, nil
}

// writeQuote writes to path, or to stdout when path is empty.
func writeQuote(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	zap.L().Info("quote written", zap.String("path", path))
	return nil
}
