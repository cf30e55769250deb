package decode

// Report is a flat rendering of a decode failure for json, yaml and table
// output.
type Report struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Offset   int64    `json:"offset" yaml:"offset"`
	Found    string   `json:"found" yaml:"found"`
	Expected []string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Excerpt  string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// NewReport builds a report from err. It returns nil when err carries no
// decode error.
func NewReport(err error) *Report {
	de, ok := AsError(err)
	if !ok {
		return nil
	}
	r := &Report{
		Kind:     de.Kind.String(),
		Offset:   de.Offset,
		Found:    de.Found,
		Expected: append([]string(nil), de.Expected...),
		Message:  de.Error(),
	}
	if len(de.Input) > 0 {
		r.Excerpt = de.Excerpt()
	}
	return r
}
