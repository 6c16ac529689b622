// Package storage provides persistent storage for engine evaluations and
// cumulative analysis statistics, backed by BadgerDB.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/blunderscan/internal/evaluator"
)

// Storage keys
const (
	keyStats      = "stats"
	evalKeyPrefix = "eval"
)

// RunResult summarizes one completed analysis run.
type RunResult struct {
	GamesAnalyzed int
	Blunders      map[string]int // count per category label
	Duration      time.Duration
}

// AnalysisStats accumulates statistics across runs.
type AnalysisStats struct {
	Runs          int            `json:"runs"`
	GamesAnalyzed int            `json:"games_analyzed"`
	Blunders      map[string]int `json:"blunders_by_category"`
	TotalRunTime  time.Duration  `json:"total_run_time"`
}

// NewAnalysisStats returns empty statistics.
func NewAnalysisStats() *AnalysisStats {
	return &AnalysisStats{
		Blunders: make(map[string]int),
	}
}

// BlundersPerGame returns the average number of blunders per analyzed game.
func (s *AnalysisStats) BlundersPerGame() float64 {
	if s.GamesAnalyzed == 0 {
		return 0
	}
	total := 0
	for _, n := range s.Blunders {
		total += n
	}
	return float64(total) / float64(s.GamesAnalyzed)
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) the database in the platform data directory.
func NewStore() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) the database at the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func evalKey(fen string, thinkTime time.Duration) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", evalKeyPrefix, thinkTime.Milliseconds(), fen))
}

// SaveEvaluation persists an engine evaluation for a position.
func (s *Store) SaveEvaluation(fen string, thinkTime time.Duration, ev evaluator.Evaluation) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(evalKey(fen, thinkTime), data)
	})
}

// LoadEvaluation loads a previously stored evaluation. The second return is
// false when no evaluation is stored for the position and think time.
func (s *Store) LoadEvaluation(fen string, thinkTime time.Duration) (evaluator.Evaluation, bool, error) {
	var ev evaluator.Evaluation
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(evalKey(fen, thinkTime))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &ev); err != nil {
				return err
			}
			found = true
			return nil
		})
	})

	return ev, found, err
}

// LoadStats loads cumulative analysis statistics, empty if none stored.
func (s *Store) LoadStats() (*AnalysisStats, error) {
	stats := NewAnalysisStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})

	return stats, err
}

// SaveStats saves cumulative analysis statistics.
func (s *Store) SaveStats(stats *AnalysisStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// RecordRun folds one run's results into the cumulative statistics.
func (s *Store) RecordRun(result RunResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.Runs++
	stats.GamesAnalyzed += result.GamesAnalyzed
	stats.TotalRunTime += result.Duration
	for category, n := range result.Blunders {
		stats.Blunders[category] += n
	}

	return s.SaveStats(stats)
}
