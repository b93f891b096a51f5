package internal

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// DefaultSpinner returns an indeterminate progressbar.ProgressBar whose count is the number of matches so far.
//
// The spinner is cleared on completion so that a summary line can take its place.
func DefaultSpinner(w io.Writer, description string, options ...progressbar.Option) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		append([]progressbar.Option{
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(100 * time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true)},
			options...)...)
}
