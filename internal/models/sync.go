package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DateWindow - закрытый интервал дат [Start, End] с точностью до дня (UTC).
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{Start: TruncateDay(start), End: TruncateDay(end)}
}

func (w DateWindow) String() string {
	return fmt.Sprintf("%s..%s", FormatDate(w.Start), FormatDate(w.End))
}

// Days возвращает количество дней в окне включительно.
func (w DateWindow) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// BatchItem - астероид и не более одного (первого) сближения из ответа фида.
type BatchItem struct {
	Asteroid Asteroid
	Approach *CloseApproach
}

type Batch struct {
	Window DateWindow
	Items  []BatchItem
}

type PersistStats struct {
	AsteroidsInserted  int `json:"asteroids_inserted"`
	AsteroidsExisting  int `json:"asteroids_existing"`
	ApproachesInserted int `json:"approaches_inserted"`
	ApproachesExisting int `json:"approaches_existing"`
}

func (s *PersistStats) Add(other PersistStats) {
	s.AsteroidsInserted += other.AsteroidsInserted
	s.AsteroidsExisting += other.AsteroidsExisting
	s.ApproachesInserted += other.ApproachesInserted
	s.ApproachesExisting += other.ApproachesExisting
}

func (s PersistStats) Inserted() int {
	return s.AsteroidsInserted + s.ApproachesInserted
}

const (
	StageFetch   = "fetch"
	StagePersist = "persist"
)

type ChunkFailure struct {
	Window DateWindow `json:"window"`
	Stage  string     `json:"stage"`
	Error  string     `json:"error"`
}

type BackfillReport struct {
	RunID      string         `json:"run_id"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Chunks     int            `json:"chunks"`
	Succeeded  int            `json:"succeeded"`
	Failures   []ChunkFailure `json:"failures"`
	Stats      PersistStats   `json:"stats"`
	Cancelled  bool           `json:"cancelled"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

type IncrementalReport struct {
	RunID      string       `json:"run_id"`
	Window     DateWindow   `json:"window"`
	Stats      PersistStats `json:"stats"`
	Error      string       `json:"error,omitempty"`
	FinishedAt time.Time    `json:"finished_at"`
}

type SyncStatus struct {
	LastBackfill    *BackfillReport    `json:"last_backfill"`
	LastIncremental *IncrementalReport `json:"last_incremental"`
}
