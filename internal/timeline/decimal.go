package timeline

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"ytplayer/internal/services"
)

// Precision is the number of significant digits kept by every sum.
const Precision = 100000

var decimalCtx = apd.BaseContext.WithPrecision(Precision)

// parseLength parses a non-negative finite decimal.
func parseLength(value string) (*apd.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	d, _, err := apd.NewFromString(trimmed)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "timeline", "parse length", fmt.Sprintf("%q", value), err)
	}
	if d.Form != apd.Finite {
		return nil, services.Wrap(services.ErrValidation, "timeline", "parse length", fmt.Sprintf("%q is not finite", value), nil)
	}
	if d.Sign() < 0 {
		return nil, services.Wrap(services.ErrValidation, "timeline", "parse length", fmt.Sprintf("%q is negative", value), nil)
	}
	return d, nil
}

func add(total, x *apd.Decimal) error {
	if _, err := decimalCtx.Add(total, total, x); err != nil {
		return fmt.Errorf("sum lengths: %w", err)
	}
	return nil
}

func format(d *apd.Decimal) string {
	return d.Text('f')
}
