package insights

// Card is one title/description unit of advice or fact
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Source is a web citation attached to a result; URI is its identity
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// UntitledSource is used when the upstream citation has no title
const UntitledSource = "Untitled Source"

// QueryResult is what one settled query produces. Both slices are non-nil.
type QueryResult struct {
	Items   []Card   `json:"items"`
	Sources []Source `json:"sources"`
}

// EmptyResult returns a result with empty, non-nil slices
func EmptyResult() QueryResult {
	return QueryResult{Items: []Card{}, Sources: []Source{}}
}

// Status is the lifecycle state of one intent
type Status string

const (
	StatusIdle      Status = "idle" // never triggered
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the state of one intent for its current generation
type Outcome struct {
	Status     Status       `json:"status"`
	Result     *QueryResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	Generation uint64       `json:"generation"`
	RequestID  string       `json:"requestId,omitempty"`
}

// Pending starts a new attempt
func Pending() Outcome {
	return Outcome{Status: StatusPending}
}

// Succeeded settles an attempt with a result
func Succeeded(result QueryResult) Outcome {
	return Outcome{Status: StatusSucceeded, Result: &result}
}

// Failed settles an attempt with a user-facing message
func Failed(message string) Outcome {
	return Outcome{Status: StatusFailed, Error: message}
}

// Terminal reports whether the outcome has settled
func (o Outcome) Terminal() bool {
	return o.Status == StatusSucceeded || o.Status == StatusFailed
}
