package publisher

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"auto_content_syndicator/images"
	"auto_content_syndicator/logger"
	"auto_content_syndicator/masterdata"
	"auto_content_syndicator/strategy"
)

// Observer receives one call per builder run.
type Observer interface {
	ObservePayload(platform string, status string, elapsed time.Duration)
}

// Compiler turns one content item into every platform payload.
type Compiler struct {
	log       *logger.Logger
	extractor *masterdata.Extractor
	mapper    *images.Mapper
	rules     []Rules
	observer  Observer
}

// NewCompiler returns a Compiler using DefaultRules. observer may be nil.
func NewCompiler(mapper *images.Mapper, observer Observer, log *logger.Logger) *Compiler {
	log = logger.OrNop(log)
	if mapper == nil {
		mapper = images.NewMapper(images.CDN{}, log)
	}
	return &Compiler{
		log:       log,
		extractor: masterdata.NewExtractor(log),
		mapper:    mapper,
		rules:     DefaultRules(),
		observer:  observer,
	}
}

// Prepare normalizes a raw CMS record and upload results into an Input.
func (c *Compiler) Prepare(page []byte, uploads []json.RawMessage, s *strategy.ContentStrategy) (Input, error) {
	master, err := c.extractor.Extract(page)
	if err != nil {
		return Input{}, eris.Wrap(err, "extract master data")
	}
	return Input{
		Master:   master,
		Images:   c.mapper.Build(uploads),
		Strategy: s,
	}, nil
}

// Compile runs every platform builder concurrently. Results follow the rules
// table order. Unselected platforms are reported as skipped.
func (c *Compiler) Compile(ctx context.Context, in Input) []Result {
	results := make([]Result, len(c.rules))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range c.rules {
		g.Go(func() error {
			start := time.Now()
			results[i] = c.run(ctx, r, in)
			c.observe(results[i], time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	var ok, skip, bad int
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			ok++
		case StatusSkipped:
			skip++
		case StatusError:
			bad++
			c.log.Error("builder failed", "platform", res.Platform, "error", res.Message)
		}
	}
	c.log.Info("payloads compiled", "success", ok, "skipped", skip, "error", bad)
	return results
}

// WriteBack turns the compiled payload of one platform into a rich_text write
// for property, so the CMS record can keep the final text.
func (c *Compiler) WriteBack(results []Result, from Platform, property string) Result {
	start := time.Now()
	res := c.writeBack(results, from, property)
	c.observe(res, time.Since(start))
	if res.Status == StatusSuccess {
		c.log.Info("rich text write prepared", "from", from, "property", property)
	}
	return res
}

func (c *Compiler) writeBack(results []Result, from Platform, property string) Result {
	if strings.TrimSpace(property) == "" {
		return failed(PlatformRichText, eris.New("rich text property name required"))
	}
	for _, r := range results {
		if r.Platform != from {
			continue
		}
		text, ok := CompiledText(r)
		if !ok {
			return skipped(PlatformRichText, "no compiled %s payload", from)
		}
		return BuildRichText(property, text)
	}
	return skipped(PlatformRichText, "no compiled %s payload", from)
}

func (c *Compiler) run(ctx context.Context, r Rules, in Input) Result {
	if err := ctx.Err(); err != nil {
		return failed(r.Platform, err)
	}
	if in.Master == nil {
		return skipped(r.Platform, "no master data")
	}
	if r.Selected != nil && !r.Selected(in.Master.Platforms) {
		return skipped(r.Platform, "platform not selected")
	}
	res := Build(r, in)
	for _, w := range res.Warnings {
		c.log.Warn("builder warning", "platform", r.Platform, "warning", w)
	}
	return res
}

func (c *Compiler) observe(res Result, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObservePayload(string(res.Platform), string(res.Status), elapsed)
}
