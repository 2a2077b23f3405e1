// Package negotiation implements the turn orchestration between two chat
// sessions: alternating turns under a wall-clock budget, with fail-fast
// error handling that always yields a well-formed transcript.
package negotiation

import "encoding/json"

// TurnRecord is one transcript entry: either a spoken turn with an index and
// speaker attribution, or a terminal error marker with neither.
type TurnRecord struct {
	Turn    int
	Speaker string
	Message string
	Err     string
}

// IsError reports whether this record is the terminal error marker.
func (r TurnRecord) IsError() bool {
	return r.Err != ""
}

type turnJSON struct {
	Turn    int    `json:"turn"`
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// MarshalJSON emits {"turn","speaker","message"} for spoken turns and
// {"error"} for the terminal marker, matching the wire contract.
func (r TurnRecord) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(errorJSON{Error: r.Err})
	}
	return json.Marshal(turnJSON{Turn: r.Turn, Speaker: r.Speaker, Message: r.Message})
}

func (r *TurnRecord) UnmarshalJSON(data []byte) error {
	var e errorJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	if e.Error != "" {
		*r = TurnRecord{Err: e.Error}
		return nil
	}
	var t turnJSON
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*r = TurnRecord{Turn: t.Turn, Speaker: t.Speaker, Message: t.Message}
	return nil
}

// Transcript is the ordered, append-only record of a negotiation run. At most
// one error record appears, and only in the final position.
type Transcript []TurnRecord

// Failed reports whether the run ended on an error record.
func (t Transcript) Failed() bool {
	return len(t) > 0 && t[len(t)-1].IsError()
}

// Turns counts the spoken (non-error) records.
func (t Transcript) Turns() int {
	n := 0
	for _, r := range t {
		if !r.IsError() {
			n++
		}
	}
	return n
}
