package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/ocr"
	"github.com/sells-group/quote-engine/internal/quote"
)

// quoteEnv holds what the quote, batch and serve commands share.
type quoteEnv struct {
	Data    *catalog.Data
	Service *quote.Service
	OCR     ocr.Extractor
}

// initQuoteEnv validates cfg for mode, loads the catalog and wires the
// quote service and OCR extractor.
func initQuoteEnv(ctx context.Context, c *config.Config, mode string) (*quoteEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	data, err := catalog.Load(ctx, c.Catalog)
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}

	svc, err := quote.Build(data, c)
	if err != nil {
		return nil, eris.Wrap(err, "build quote service")
	}

	ext, err := ocr.NewExtractor(c.OCR)
	if err != nil {
		return nil, eris.Wrap(err, "init ocr")
	}

	return &quoteEnv{Data: data, Service: svc, OCR: ext}, nil
}
