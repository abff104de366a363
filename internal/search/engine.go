// Package search ranks indexed Q&A records against free-text queries.
package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/petqa/internal/config"
	"github.com/hyperjump/petqa/internal/extract"
	"github.com/hyperjump/petqa/internal/keyword"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned when the engine has no index to search. Its message is
	// what end users see.
	ErrUnavailable = errors.New("search temporarily unavailable")
	// ErrLoadInProgress is returned by Load while another load is running.
	ErrLoadInProgress = errors.New("index load already in progress")
)

// State is the lifecycle state of an Engine.
type State int32

const (
	// StateEmpty means no index has been loaded or requested.
	StateEmpty State = iota
	// StateLoading means the first index is being loaded; searches report isLoading.
	StateLoading
	// StateReady means an index is being served.
	StateReady
	// StateFailed means the last load failed and there is no index to serve.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader produces an index, typically from a snapshot store or a fresh build.
type Loader func(ctx context.Context) (*models.SearchIndex, error)

// generation is one loaded index with the structures derived from it. It is replaced
// as a whole so cached results never outlive their index.
type generation struct {
	index    *models.SearchIndex
	cache    *ResultCache
	speller  *keyword.SpellChecker
	loadedAt time.Time
}

// Engine answers queries against the current index.
type Engine struct {
	cfg     config.SearchConfig
	logger  *zap.Logger
	current atomic.Pointer[generation]
	loading atomic.Bool

	mu      sync.Mutex
	lastErr error
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithIndex makes the engine ready with idx from the start.
func WithIndex(idx *models.SearchIndex) EngineOption {
	return func(e *Engine) { e.current.Store(e.newGeneration(idx)) }
}

// NewEngine creates an engine. Without WithIndex it starts empty; call Load.
func NewEngine(cfg config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

func (e *Engine) newGeneration(idx *models.SearchIndex) *generation {
	if idx == nil {
		idx = &models.SearchIndex{Entries: []*models.DocumentRecord{}}
	}
	return &generation{
		index:    idx,
		cache:    NewResultCache(e.cfg.CacheSize),
		speller:  keyword.NewSpellChecker(keyword.NewVocabulary(idx), keyword.WithKnownWords(extract.IsStopWord)),
		loadedAt: time.Now(),
	}
}

// Load runs loader in the background and swaps its index in on success. The returned
// channel receives the outcome once and is then closed; by then State already reflects
// it. A failed load keeps serving the previous index, if any, and a loaded index older
// than the served one is discarded.
func (e *Engine) Load(ctx context.Context, loader Loader) <-chan error {
	done := make(chan error, 1)
	if !e.loading.CompareAndSwap(false, true) {
		done <- ErrLoadInProgress
		close(done)
		return done
	}
	go func() {
		defer close(done)
		start := time.Now()
		idx, err := loader(ctx)
		if err != nil {
			e.setLastErr(err)
			e.loading.Store(false)
			e.logger.Warn("index load failed", zap.Error(err), zap.Bool("serving_previous", e.current.Load() != nil))
			done <- err
			return
		}
		if e.Swap(idx) {
			e.logger.Info("index loaded", zap.Int("entries", idx.Len()), zap.Duration("duration", time.Since(start)))
		}
		e.loading.Store(false)
		done <- nil
	}()
	return done
}

// Swap atomically replaces the served index and drops the result cache with it. An index
// built before the served one is ignored and Swap returns false.
func (e *Engine) Swap(idx *models.SearchIndex) bool {
	gen := e.newGeneration(idx)
	for {
		cur := e.current.Load()
		if cur != nil && gen.index.BuiltAt.Before(cur.index.BuiltAt) {
			e.logger.Info("ignoring index older than the served one",
				zap.String("build_id", gen.index.BuildID),
				zap.String("served_build_id", cur.index.BuildID))
			return false
		}
		if e.current.CompareAndSwap(cur, gen) {
			break
		}
	}
	e.setLastErr(nil)
	e.logger.Debug("index swapped", zap.Int("entries", gen.index.Len()), zap.String("build_id", gen.index.BuildID))
	return true
}

func (e *Engine) setLastErr(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

// LastError returns the error of the most recent failed load, cleared by a successful one.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// State reports the lifecycle state.
func (e *Engine) State() State {
	switch {
	case e.current.Load() != nil:
		return StateReady
	case e.loading.Load():
		return StateLoading
	case e.LastError() != nil:
		return StateFailed
	default:
		return StateEmpty
	}
}

// Index returns the served index, or nil.
func (e *Engine) Index() *models.SearchIndex {
	if gen := e.current.Load(); gen != nil {
		return gen.index
	}
	return nil
}

// Search ranks the index against query. A query shorter than two characters yields an
// empty response. While the first index is loading the response has IsLoading set; with
// no index at all Search returns ErrUnavailable.
func (e *Engine) Search(ctx context.Context, query string, opts models.SearchOptions) (*models.SearchResponse, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := &models.SearchResponse{Query: query, Results: []models.QueryResult{}}
	if models.TooShort(query) {
		return resp, nil
	}
	gen := e.current.Load()
	if gen == nil {
		if e.loading.Load() {
			resp.IsLoading = true
			return resp, nil
		}
		return nil, ErrUnavailable
	}

	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	opts = opts.Normalize(e.cfg.MaxLimit)
	normalized := models.NormalizeQuery(query)
	words := models.QueryWords(normalized)
	if len(words) == 0 {
		return resp, nil
	}

	key := CacheKey(normalized, opts)
	results, hit := gen.cache.Get(key)
	if !hit {
		results = gen.rank(normalized, words, opts)
		gen.cache.Put(key, results)
	}
	resp.Results = append(resp.Results, results...)
	if len(resp.Results) == 0 && e.cfg.DidYouMeanOrDefault() {
		if suggestion := gen.speller.SuggestedQuery(normalized); suggestion != normalized {
			resp.DidYouMean = suggestion
		}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	e.logger.Debug("search",
		zap.String("query", normalized),
		zap.Int("results", len(resp.Results)),
		zap.Bool("cached", hit),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

type candidate struct {
	rec   *models.DocumentRecord
	score int
}

// rank scores every record in one pass, sorts stably and trims.
func (g *generation) rank(normalized string, words []string, opts models.SearchOptions) []models.QueryResult {
	var candidates []candidate
	for _, rec := range g.index.Entries {
		if opts.Category != "" && !strings.EqualFold(rec.Category, opts.Category) {
			continue
		}
		if s := Score(rec, normalized, words, opts.Fuzzy); s > 0 {
			candidates = append(candidates, candidate{rec: rec, score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	results := make([]models.QueryResult, len(candidates))
	var hl *Highlighter
	if opts.WantSnippet() {
		hl = NewHighlighter(words)
	}
	for i, c := range candidates {
		results[i] = models.QueryResult{Record: c.rec, Score: c.score}
		if hl != nil {
			results[i].Snippet = hl.Snippet(c.rec.Excerpt)
		}
	}
	return results
}

// Stats describes the engine for status output.
type Stats struct {
	State         string    `json:"state"`
	Entries       int       `json:"entries"`
	BuildID       string    `json:"buildId,omitempty"`
	BuiltAt       time.Time `json:"builtAt,omitzero"`
	LoadedAt      time.Time `json:"loadedAt,omitzero"`
	CacheEntries  int       `json:"cacheEntries"`
	CacheCapacity int       `json:"cacheCapacity"`
	LastError     string    `json:"lastError,omitempty"`
}

// Stats returns a point-in-time description of the engine.
func (e *Engine) Stats() Stats {
	st := Stats{State: e.State().String(), CacheCapacity: e.cfg.CacheSize}
	if gen := e.current.Load(); gen != nil {
		st.Entries = gen.index.Len()
		st.BuildID = gen.index.BuildID
		st.BuiltAt = gen.index.BuiltAt
		st.LoadedAt = gen.loadedAt
		st.CacheEntries = gen.cache.Len()
	}
	if err := e.LastError(); err != nil {
		st.LastError = err.Error()
	}
	return st
}
