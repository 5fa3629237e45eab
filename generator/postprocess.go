package generator

import (
	"strings"

	"github.com/rotisserie/eris"

	"auto_content_syndicator/strategy"
)

// PostProcess turns raw model output into a validated strategy. Parse and
// validation failures are returned unwrapped as *strategy.ParseError and
// *strategy.ValidationError.
func PostProcess(raw string, v *strategy.Validator) (*strategy.ContentStrategy, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, eris.New("model returned an empty response")
	}
	doc, err := strategy.Extract(raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = strategy.NewValidator(nil)
	}
	return v.Validate(doc)
}
