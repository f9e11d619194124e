package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched     int64
	RelevantArticles    int64
	DuplicatesFiltered  int64
	SummariesGenerated  int64
	SummariesFailed     int64
	SummaryCacheHits    int64
	DigestsSent         int64
	RankStrategyUses    map[string]int64
	SummaryStrategyUses map[string]int64

	// Timings
	LastRunDuration    time.Duration
	AverageRunDuration time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{
	IsHealthy:           true,
	RankStrategyUses:    make(map[string]int64),
	SummaryStrategyUses: make(map[string]int64),
}

func (m *Metrics) AddArticlesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
}

func (m *Metrics) AddRelevantArticles(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RelevantArticles += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementSummariesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementSummariesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesFailed++
}

func (m *Metrics) IncrementSummaryCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryCacheHits++
}

func (m *Metrics) IncrementDigestsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsSent++
}

func (m *Metrics) RecordRankStrategy(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RankStrategyUses[name]++
}

func (m *Metrics) RecordSummaryStrategy(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryStrategyUses[name]++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rankUses := make(map[string]int64, len(m.RankStrategyUses))
	for name, n := range m.RankStrategyUses {
		rankUses[name] = n
	}
	summaryUses := make(map[string]int64, len(m.SummaryStrategyUses))
	for name, n := range m.SummaryStrategyUses {
		summaryUses[name] = n
	}

	return map[string]interface{}{
		"articles_fetched":        m.ArticlesFetched,
		"relevant_articles":       m.RelevantArticles,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"summaries_generated":     m.SummariesGenerated,
		"summaries_failed":        m.SummariesFailed,
		"summary_cache_hits":      m.SummaryCacheHits,
		"digests_sent":            m.DigestsSent,
		"rank_strategy_uses":      rankUses,
		"summary_strategy_uses":   summaryUses,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
