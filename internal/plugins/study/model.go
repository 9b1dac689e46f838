// Package study implements the study-mistake tracker: per-user mistake
// records with difficulty/tag bookkeeping, aggregate stats, and tag-based
// practice recommendations.
//
// Key layout (all scoped per user): study:{uid}:mistakes_seq (id counter),
// study:{uid}:mistake:{id} (record hash), study:{uid}:mistakes (owning set),
// study:{uid}:difficulty:{d} and study:{uid}:tag:{t} (counters incremented
// on create and never decremented), study:{uid}:trend:{YYYY-MM-DD} (per-day
// creation counter).
package study

import (
	"strings"
	"time"
)

// The fixed difficulty vocabulary.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Difficulties lists the vocabulary in stats order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Mistake is the domain model for a recorded study mistake. Unlike forum
// content, mistakes are hard-deleted: the hash is removed and the id leaves
// the owning set.
type Mistake struct {
	ID         string
	TitleSlug  string
	Title      string
	Difficulty string // empty or one of Difficulties
	Tags       []string
	Note       string
	CreatedAt  string
}

// --- Request/response DTOs ---

// MistakeCreateRequest is the body of POST /study/mistakes.
type MistakeCreateRequest struct {
	TitleSlug  string   `json:"titleSlug"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Note       string   `json:"note"`
}

// MistakePublic is the caller-facing projection of a mistake.
type MistakePublic struct {
	ID         string   `json:"id"`
	TitleSlug  string   `json:"titleSlug"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags"`
	Note       string   `json:"note,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

// TrendPoint is one day of the creation trend.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StatsResponse aggregates a user's mistakes. ByDifficulty comes from the
// create-time counters (never decremented on delete, so it can overcount
// after deletions); ByTag is recomputed from the live records.
type StatsResponse struct {
	Total        int64            `json:"total"`
	ByDifficulty map[string]int64 `json:"byDifficulty"`
	ByTag        map[string]int64 `json:"byTag"`
	RecentTrend  []TrendPoint     `json:"recentTrend"`
}

// Recommendation is a suggested practice problem derived from tag frequency.
type Recommendation struct {
	TitleSlug string `json:"titleSlug"`
	Title     string `json:"title"`
	Reason    string `json:"reason"`
}

// validDifficulty reports whether d is empty or in the fixed vocabulary.
func validDifficulty(d string) bool {
	if d == "" {
		return true
	}
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// joinTags and splitTags convert between the tag slice and its stored
// comma-joined form.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
