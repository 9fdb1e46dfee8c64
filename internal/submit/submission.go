package submit

import "encoding/json"

// Submission is one completed capture bound for the configured endpoint.
type Submission struct {
	URL   string
	Team  string
	Codes [4]string
}

// MarshalJSON renders the wire payload: {"team": ..., "1": ..., "2": ..., "3": ..., "4": ...}.
// The URL is routing, not payload.
func (s Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Team string `json:"team"`
		One  string `json:"1"`
		Two  string `json:"2"`
		Thr  string `json:"3"`
		Four string `json:"4"`
	}{s.Team, s.Codes[0], s.Codes[1], s.Codes[2], s.Codes[3]})
}
