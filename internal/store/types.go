package store

import "time"

// Model is the registry row for one benchmarkable model. Backend is the
// explicit placement tag ("local" or "remote") set at registration; no
// part of the system infers it later.
type Model struct {
	Codename    string
	DisplayName string
	Backend     string
	Identifier  string
	FilesizeMB  int64
	License     string
}

// Benchmark describes one benchmark suite. ScoreMultiplier selects the
// alternate aggregate-score formula; 0 or 1 means the plain percentage.
type Benchmark struct {
	Codename        string
	DisplayName     string
	Description     string
	ScoreMultiplier int
}

// Question is one stored benchmark question. InfoJSON carries the full
// question description (text, answer type, expected answer, criteria).
type Question struct {
	QuestionID string
	Benchmark  string
	InfoJSON   string
}

// Run is one completed benchmark run for one model.
type Run struct {
	RunID     int64
	RunTS     time.Time
	Model     string
	Benchmark string
	Score     int
}

// RunDetail is the per-question outcome within a run.
type RunDetail struct {
	QuestionID string
	Score      int
	EvalMsec   int64
	DebugJSON  string
}

// RunFilter narrows ListRuns. Zero values mean no constraint.
type RunFilter struct {
	Model     string
	Benchmark string
	Limit     int
}

// LeaderboardEntry is a model's best score on one benchmark.
type LeaderboardEntry struct {
	Model     string
	Benchmark string
	Score     int
	RunID     int64
	RunTS     time.Time
}
