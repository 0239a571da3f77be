package cli

import (
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/handiism/modfetch/internal/download"
	"github.com/handiism/modfetch/internal/model"
)

var (
	downloadedColor = color.New(color.FgGreen)
	skippedColor    = color.New(color.FgCyan)
	notFoundColor   = color.New(color.FgYellow)
	failedColor     = color.New(color.FgRed)
	summaryColor    = color.New(color.Bold)
)

// printer is the terminal download.Observer.
//
// With bars enabled, outcome lines are written through the mpb container so
// they appear above the bars; otherwise they go straight to out.
type printer struct {
	out      io.Writer
	dest     io.Writer
	progress *mpb.Progress
	overall  *mpb.Bar
	item     *mpb.Bar

	mu       sync.Mutex
	itemName string
	itemInfo string
}

func newPrinter(out io.Writer, total int, bars bool) *printer {
	p := &printer{out: out, dest: out}
	if !bars || total == 0 {
		return p
	}

	p.progress = mpb.New(mpb.WithOutput(out), mpb.WithWidth(40), mpb.WithAutoRefresh())
	p.out = p.progress

	p.overall = p.progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("packages", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
	)
	p.item = p.progress.AddBar(100,
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return p.currentName() }, decor.WCSyncSpaceR),
			decor.Any(func(decor.Statistics) string { return p.currentInfo() }, decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
	)
	return p
}

func (p *printer) OnOutcome(o model.Outcome) {
	var c *color.Color
	var prefix string
	switch o.Kind {
	case model.OutcomeDownloaded:
		c, prefix = downloadedColor, "⬇️  "
	case model.OutcomeSkipped:
		c, prefix = skippedColor, "✅ "
	case model.OutcomeNotFound:
		c, prefix = notFoundColor, "❌ "
	default:
		c, prefix = failedColor, "❌ "
	}
	c.Fprintln(p.out, prefix+o.String())
}

func (p *printer) OnProgress(completed, _ int) {
	if p.overall != nil {
		p.overall.SetCurrent(int64(completed))
	}
}

func (p *printer) OnItemBytes(name string, downloaded, total int64) {
	if p.item == nil {
		return
	}

	info := model.FormatBytes(downloaded)
	var percent int64
	if total > 0 {
		info += " / " + model.FormatBytes(total)
		percent = downloaded * 100 / total
	}

	p.mu.Lock()
	p.itemName, p.itemInfo = name, info
	p.mu.Unlock()

	// Keep the bar below 100 so it never completes while files remain.
	if percent > 99 {
		percent = 99
	}
	p.item.SetCurrent(percent)
}

func (p *printer) OnBatchComplete([]string) {
	if p.item != nil {
		p.item.Abort(true)
	}
}

// Close waits for the bars to finish rendering.
func (p *printer) Close() {
	if p.progress == nil {
		return
	}
	if !p.overall.Completed() {
		p.overall.Abort(false)
	}
	p.item.Abort(true)
	p.progress.Wait()
	p.progress = nil
	p.out = p.dest
}

// PrintSummary writes the trailing summary line. Call it after Close.
func (p *printer) PrintSummary(s *download.Summary) {
	summaryColor.Fprintln(p.out, s.String())
}

func (p *printer) currentName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemName
}

func (p *printer) currentInfo() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemInfo
}
