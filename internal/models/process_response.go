package models

// ProcessResponse is the processing endpoint's reply to a submission.
// Raw holds the decoded JSON object verbatim; the typed fields are read from it
// defensively and are zero when absent or mistyped.
type ProcessResponse struct {
	Success        bool           `json:"success,omitempty" msgpack:"success,omitempty"`
	ProcessedPages int            `json:"processed_pages" msgpack:"processed_pages"`
	Texts          []string       `json:"-" msgpack:"-"`
	Raw            map[string]any `json:"-" msgpack:"-"`
}

// Results returns the "results" object of the payload, or nil.
func (r *ProcessResponse) Results() map[string]any {
	if r == nil || r.Raw == nil {
		return nil
	}
	res, _ := r.Raw["results"].(map[string]any)
	return res
}

// Field returns results[name], or nil when missing.
func (r *ProcessResponse) Field(name string) any {
	res := r.Results()
	if res == nil {
		return nil
	}
	return res[name]
}
