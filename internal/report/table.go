// Package report renders scan results for terminals.
package report

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/exchange"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
)

// Table writes one row per instrument in result order.
func Table(w io.Writer, res scanner.Result) {
	fmt.Fprintf(w, "Bitget USDT perpetuals via %s (%s), %d instruments, %s\n",
		res.Route, res.Version, len(res.Instruments), res.StartedAt.Format("15:04:05"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Ticker\tDiagnosis\tBias\tPrice\tAmplitude 1H %\tChange 24h %\tVolume\t")
	for _, inst := range res.Instruments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6g\t%.2f\t%+.2f\t%.0f\t\n",
			inst.Display, inst.Diagnosis, inst.Bias, inst.Price, inst.Amplitude1h, inst.Change24h, inst.Volume)
	}
	_ = tw.Flush()
}

// Failure writes the single user-facing explanation of a failed scan.
func Failure(w io.Writer, err error) {
	var exhausted *exchange.RouteExhaustedError
	if errors.As(err, &exhausted) {
		fmt.Fprintf(w, "Could not reach Bitget on any API version. Last error: %v\n", exhausted.Last())
		return
	}
	fmt.Fprintf(w, "Scan failed: %v\n", err)
}

// Progress returns a progress observer that redraws a single status line on w.
func Progress(w io.Writer) scanner.ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(w, "\rmeasuring 1h candles %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
