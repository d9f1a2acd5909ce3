package share

import (
	"context"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"golang.org/x/time/rate"

	"github.com/moyoez/tvremote-go/boardcast"
	"github.com/moyoez/tvremote-go/identify"
	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

const (
	// probeMemoTTL outlives any single run; entries are scoped by run id.
	probeMemoTTL       = 60 * time.Second
	defaultConcurrency = 8
)

type memoEntry struct {
	done   bool
	result types.ProbeResult
}

var (
	descriptorMemo = ttlworker.NewCache[string, memoEntry](probeMemoTTL)
	statusMemo     = ttlworker.NewCache[string, memoEntry](probeMemoTTL)
)

// Discoverer yields the deduplicated replies of one discovery round.
type Discoverer interface {
	Discover(ctx context.Context) ([]types.NormalizedReply, error)
}

// Identifier runs the enrichment probes.
type Identifier interface {
	ProbeDescriptor(ctx context.Context, location string) types.ProbeResult
	ProbeStatus(ctx context.Context, address string) types.ProbeResult
	Signals(reply types.NormalizedReply, descriptor, status types.ProbeResult) types.IdentitySignals
}

// Scanner runs discovery, enrichment and ranking.
type Scanner struct {
	Discoverer   Discoverer
	Identifier   Identifier
	Concurrency  int
	RateLimitPPS int
}

func NewScanner(cfg types.AppConfig) *Scanner {
	return &Scanner{
		Discoverer:   boardcast.NewProber(cfg),
		Identifier:   identify.NewClassifier(cfg),
		Concurrency:  cfg.Concurrency,
		RateLimitPPS: cfg.ProbeRatePPS,
	}
}

// Run performs one discovery run. An empty result is not an error.
func (s *Scanner) Run(ctx context.Context) ([]types.Candidate, error) {
	runID := tool.NewRunID()
	logger := tool.DefaultLogger.With("run", tool.ShortID(runID))

	start := time.Now()
	replies, err := s.Discoverer.Discover(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Discovered %d unique replies in %v", len(replies), time.Since(start).Round(time.Millisecond))

	enriched := s.Enrich(ctx, runID, replies)
	candidates := Rank(enriched)
	logger.Infof("Ranked %d candidates in %v", len(candidates), time.Since(start).Round(time.Millisecond))
	return candidates, nil
}

type probeKind int

const (
	probeDescriptor probeKind = iota
	probeStatus
)

type probeTask struct {
	kind   probeKind
	target string
}

func memoKey(runID, target string) string {
	return runID + "|" + target
}

// Enrich probes every distinct LOCATION and address once, in parallel, then
// assembles signals per reply in input order.
func (s *Scanner) Enrich(ctx context.Context, runID string, replies []types.NormalizedReply) []types.EnrichedReply {
	results := s.runProbes(ctx, runID, planProbes(replies))

	enriched := make([]types.EnrichedReply, 0, len(replies))
	for _, reply := range replies {
		var descriptor types.ProbeResult
		if reply.Location != "" {
			descriptor = results[probeTask{kind: probeDescriptor, target: reply.Location}]
		}
		status := results[probeTask{kind: probeStatus, target: reply.SourceAddress}]
		enriched = append(enriched, types.EnrichedReply{
			Reply:   reply,
			Signals: s.Identifier.Signals(reply, descriptor, status),
		})
	}
	return enriched
}

func planProbes(replies []types.NormalizedReply) []probeTask {
	seen := make(map[probeTask]struct{})
	var tasks []probeTask
	add := func(t probeTask) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tasks = append(tasks, t)
	}
	for _, r := range replies {
		if r.Location != "" {
			add(probeTask{kind: probeDescriptor, target: r.Location})
		}
		add(probeTask{kind: probeStatus, target: r.SourceAddress})
	}
	return tasks
}

// runProbes executes every task under the concurrency and rate limits and
// returns one result per task. A task the limiter refused carries its error.
func (s *Scanner) runProbes(ctx context.Context, runID string, tasks []probeTask) map[probeTask]types.ProbeResult {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	var limiter *rate.Limiter
	if s.RateLimitPPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.RateLimitPPS), 1)
	}

	results := make(map[probeTask]types.ProbeResult, len(tasks))
	var mu sync.Mutex
	record := func(t probeTask, res types.ProbeResult) {
		mu.Lock()
		results[t] = res
		mu.Unlock()
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t probeTask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					record(t, types.ProbeResult{Err: err})
					return
				}
			}
			record(t, s.probe(ctx, runID, t))
		}(task)
	}
	wg.Wait()
	return results
}

// probe returns the memoized result for t within the run, running the probe on a miss.
func (s *Scanner) probe(ctx context.Context, runID string, t probeTask) types.ProbeResult {
	memo := statusMemo
	if t.kind == probeDescriptor {
		memo = descriptorMemo
	}
	key := memoKey(runID, t.target)
	if entry := memo.Get(key); entry.done {
		return entry.result
	}
	if ctx.Err() != nil {
		return types.ProbeResult{Err: ctx.Err()}
	}

	var res types.ProbeResult
	if t.kind == probeDescriptor {
		res = s.Identifier.ProbeDescriptor(ctx, t.target)
	} else {
		res = s.Identifier.ProbeStatus(ctx, t.target)
	}
	memo.Set(key, memoEntry{done: true, result: res})
	return res
}
