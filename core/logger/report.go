package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
)

// LogEntry is one decoded event. Fields an event doesn't carry are zero.
type LogEntry struct {
	Timestamp float64  `json:"ts"`
	Level     string   `json:"level"`
	Logger    string   `json:"logger,omitempty"`
	Message   string   `json:"msg"`
	SessionID string   `json:"session,omitempty"`
	Argv      []string `json:"argv,omitempty"`
	Expr      string   `json:"expr,omitempty"`
	Pid       int      `json:"pid,omitempty"`
	Status    *int     `json:"status,omitempty"`
	Job       int      `json:"job,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		ExecFailures:     NewPathCounter("command", "error"),
		RedirectFailures: NewPathCounter("error"),
		sessions:         make(map[string]struct{}),
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	Commands      StrCounter `json:"command_names"`
	ExitStatuses  StrCounter `json:"exit_statuses"`
	Evaluations   int        `json:"evaluations"`
	Malformed     int        `json:"malformed_expressions"`
	Pipes         int        `json:"pipes"`
	Jobs          StrCounter `json:"jobs"`
	JobStatuses   StrCounter `json:"job_statuses"`
	ReapedJobs    StrCounter `json:"reaped_jobs"`
	UnownedReaped int        `json:"unowned_children_reaped"`

	ExecFailures     *PathCounter `json:"exec_failures"`
	RedirectFailures *PathCounter `json:"redirect_failures"`

	sessions map[string]struct{}
}

// Update adds one event to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	if le.SessionID != "" {
		if r.sessions == nil {
			r.sessions = make(map[string]struct{})
		}
		if _, ok := r.sessions[le.SessionID]; !ok {
			r.sessions[le.SessionID] = struct{}{}
			r.Sessions++
		}
	}

	switch le.Message {
	case EventEval:
		r.Evaluations++
	case EventMalformed:
		r.Malformed++
	case EventSpawn:
		if len(le.Argv) > 0 {
			r.Commands.Increment(le.Argv[0])
		}
	case EventExit:
		if le.Status != nil {
			r.ExitStatuses.Increment(strconv.Itoa(*le.Status))
		}
	case EventExecFailed:
		command := ""
		if len(le.Argv) > 0 {
			command = le.Argv[0]
		}
		r.ExecFailures.Increment(command, le.Error)
	case EventRedirectFailed:
		r.RedirectFailures.Increment(le.Error)
	case EventPipe:
		r.Pipes++
	case EventJobStarted:
		r.Jobs.Increment(le.Kind)
	case EventJobFinished:
		if le.Status != nil {
			r.JobStatuses.Increment(strconv.Itoa(*le.Status))
		}
	case EventJobReaped:
		r.ReapedJobs.Increment(le.Kind)
	case EventUnownedReaped:
		r.UnownedReaped++
	case EventBackground:
		// Ignore
	default:
		r.InvalidEntries.Increment(le.Message)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts tuples of strings, one per column.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given tuple.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for a tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler. Tuples are sorted by
// descending count.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
