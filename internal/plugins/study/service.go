package study

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
	"github.com/ninglab/ning-backend/internal/sanitize"
)

// Defaults for the stats and recommendation queries.
const (
	defaultTrendDays    = 7
	defaultRecommendLim = 10
)

// Service defines the business logic contract for the study tracker.
type Service interface {
	AddMistake(ctx context.Context, caller *auth.User, req MistakeCreateRequest) (*MistakePublic, error)
	ListMistakes(ctx context.Context, caller *auth.User) ([]MistakePublic, error)
	DeleteMistake(ctx context.Context, caller *auth.User, id string) error
	Stats(ctx context.Context, caller *auth.User, days int) (*StatsResponse, error)
	Recommendations(ctx context.Context, caller *auth.User, limit int) ([]Recommendation, error)
}

type service struct {
	repo Repository
}

// NewService creates a new study service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddMistake records a mistake and updates the side-effect counters:
// per-difficulty, per-tag, and the per-day trend. The record write and the
// counter increments are independent store calls with no rollback; a crash
// in between leaves the counters slightly stale, which is accepted.
func (s *service) AddMistake(ctx context.Context, caller *auth.User, req MistakeCreateRequest) (*MistakePublic, error) {
	if req.TitleSlug == "" || req.Title == "" {
		return nil, apperror.NewBadRequest("titleSlug and title are required")
	}
	if !validDifficulty(req.Difficulty) {
		return nil, apperror.NewValidation(fmt.Sprintf("difficulty must be one of %v", Difficulties))
	}

	id, err := s.repo.NextMistakeID(ctx, caller.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	m := &Mistake{
		ID:         strconv.FormatInt(id, 10),
		TitleSlug:  req.TitleSlug,
		Title:      req.Title,
		Difficulty: req.Difficulty,
		Tags:       req.Tags,
		Note:       sanitize.Text(req.Note),
		CreatedAt:  nowISO(),
	}
	if err := s.repo.SaveMistake(ctx, caller.ID, m); err != nil {
		return nil, apperror.WrapStore(err)
	}

	if m.Difficulty != "" {
		if err := s.repo.IncrDifficulty(ctx, caller.ID, m.Difficulty); err != nil {
			return nil, apperror.WrapStore(err)
		}
	}
	for _, tag := range m.Tags {
		if err := s.repo.IncrTag(ctx, caller.ID, tag); err != nil {
			return nil, apperror.WrapStore(err)
		}
	}
	// The trend key is the UTC date portion of the creation timestamp.
	if err := s.repo.IncrTrend(ctx, caller.ID, m.CreatedAt[:10]); err != nil {
		return nil, apperror.WrapStore(err)
	}

	slog.Info("mistake recorded",
		slog.String("user_id", caller.ID),
		slog.String("mistake_id", m.ID),
		slog.String("slug", m.TitleSlug),
	)

	return public(m), nil
}

// ListMistakes returns the caller's mistakes ordered by ascending id.
func (s *service) ListMistakes(ctx context.Context, caller *auth.User) ([]MistakePublic, error) {
	ids, err := s.sortedIDs(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	items := make([]MistakePublic, 0, len(ids))
	for _, id := range ids {
		m, err := s.repo.FindMistake(ctx, caller.ID, id)
		if err != nil {
			// The owning set can reference a hash lost to a partial
			// failure; skip rather than fail the whole listing.
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, apperror.WrapStore(err)
		}
		items = append(items, *public(m))
	}
	return items, nil
}

// DeleteMistake hard-deletes a mistake: the hash is removed and the id
// leaves the owning set. The difficulty/tag counters are deliberately NOT
// decremented. Deleting an unknown id is a silent success.
func (s *service) DeleteMistake(ctx context.Context, caller *auth.User, id string) error {
	_, err := s.repo.FindMistake(ctx, caller.ID, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.WrapStore(err)
	}

	if err := s.repo.DeleteMistake(ctx, caller.ID, id); err != nil {
		return apperror.WrapStore(err)
	}
	return nil
}

// Stats aggregates the caller's mistakes: total from the owning set,
// byDifficulty from the create-time counters, byTag recomputed from the
// live records, and the creation trend for the last `days` days
// (oldest first).
func (s *service) Stats(ctx context.Context, caller *auth.User, days int) (*StatsResponse, error) {
	if days <= 0 {
		days = defaultTrendDays
	}

	total, err := s.repo.MistakeCount(ctx, caller.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	byDifficulty := make(map[string]int64, len(Difficulties))
	for _, d := range Difficulties {
		n, err := s.repo.DifficultyCount(ctx, caller.ID, d)
		if err != nil {
			return nil, apperror.WrapStore(err)
		}
		byDifficulty[d] = n
	}

	byTag, err := s.tagCounts(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	trend := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		n, err := s.repo.TrendCount(ctx, caller.ID, day)
		if err != nil {
			return nil, apperror.WrapStore(err)
		}
		trend = append(trend, TrendPoint{Date: day, Count: n})
	}

	return &StatsResponse{
		Total:        total,
		ByDifficulty: byDifficulty,
		ByTag:        byTag,
		RecentTrend:  trend,
	}, nil
}

// Recommendations ranks the caller's tags by frequency (count descending,
// then name ascending) and fabricates one practice suggestion per top tag,
// capped at limit.
func (s *service) Recommendations(ctx context.Context, caller *auth.User, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendLim
	}

	byTag, err := s.tagCounts(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if byTag[tags[i]] != byTag[tags[j]] {
			return byTag[tags[i]] > byTag[tags[j]]
		}
		return tags[i] < tags[j]
	})

	top := limit / 2
	if top < 1 {
		top = 1
	}
	if top > len(tags) {
		top = len(tags)
	}

	recs := make([]Recommendation, 0, top)
	for _, tag := range tags[:top] {
		recs = append(recs, Recommendation{
			TitleSlug: tag + "-practice-1",
			Title:     "Practice " + tag + " I",
			Reason:    "Based on frequent tag: " + tag,
		})
		if len(recs) >= limit {
			break
		}
	}
	return recs, nil
}

// tagCounts recomputes tag frequencies by scanning the caller's live
// records. The per-tag counters aren't used here because they're never
// decremented and would overcount after deletions.
func (s *service) tagCounts(ctx context.Context, uid string) (map[string]int64, error) {
	ids, err := s.repo.MistakeIDs(ctx, uid)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	counts := make(map[string]int64)
	for _, id := range ids {
		m, err := s.repo.FindMistake(ctx, uid, id)
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, apperror.WrapStore(err)
		}
		for _, tag := range m.Tags {
			counts[tag]++
		}
	}
	return counts, nil
}

// sortedIDs returns the owning set's ids in ascending numeric order.
func (s *service) sortedIDs(ctx context.Context, uid string) ([]string, error) {
	ids, err := s.repo.MistakeIDs(ctx, uid)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	nums := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	out := make([]string, len(nums))
	for i, n := range nums {
		out[i] = strconv.FormatInt(n, 10)
	}
	return out, nil
}

func public(m *Mistake) *MistakePublic {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &MistakePublic{
		ID:         m.ID,
		TitleSlug:  m.TitleSlug,
		Title:      m.Title,
		Difficulty: m.Difficulty,
		Tags:       tags,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}
