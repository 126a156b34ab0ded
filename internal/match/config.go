// Package match decides which catalog item, if any, each parsed RFQ line
// refers to, and records why.
package match

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/config"
)

// DefaultConfig returns the stock matching thresholds.
func DefaultConfig() config.MatchConfig {
	return config.MatchConfig{
		AutoMatchScore:  85,
		AutoMatchDelta:  15,
		SizeToleranceMM: 1.0,
		TopN:            5,
	}
}

// ValidateConfig checks that a MatchConfig is usable.
func ValidateConfig(c config.MatchConfig) error {
	var errs []string

	if c.AutoMatchScore <= 0 {
		errs = append(errs, "auto_match_score must be > 0")
	}
	if c.AutoMatchDelta < 0 {
		errs = append(errs, "auto_match_delta must be >= 0")
	}
	if c.SizeToleranceMM <= 0 {
		errs = append(errs, "size_tolerance_mm must be > 0")
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Sprintf("top_n must be >= 1, got %d", c.TopN))
	}

	if len(errs) > 0 {
		return eris.Errorf("match: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
