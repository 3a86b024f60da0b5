// Package search implements the orchestrator that the UI collaborator calls:
// cache check, remote query with local fallback, scoring, route synthesis
// and availability patching of returned results.
package search

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/remote"
	"github.com/vso023/smartpark-project/internal/route"
	"github.com/vso023/smartpark-project/internal/score"
)

// State tracks where the orchestrator is in its search cycle. Terminal
// states are re-entered as Searching on the next Search call; the machine
// never runs two cycles of the same instance concurrently on purpose — a
// newer call supersedes an in-flight one.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// DefaultRemoteTimeout bounds the remote repository query.
const DefaultRemoteTimeout = 5 * time.Second

// maxAlternatives is how many runners-up a result carries.
const maxAlternatives = 3

// liveResultLimit bounds how many handed-out results still receive
// availability patches. Older results age out of patching, not of validity.
const liveResultLimit = 16

// Result is what a successful search returns. It is assembled once and
// never re-ranked; a later availability event patches the embedded facility
// flags on the canonical object held in the cache and live list (see
// ApplyAvailability). Callers receive a copied snapshot and can read it
// without further locking; the patch becomes visible on their next read.
type Result struct {
	Primary       *score.Candidate   `json:"primary"`
	Alternatives  []*score.Candidate `json:"alternatives"`
	Route         []geo.Location     `json:"route"`
	QueryLocation geo.Location       `json:"query_location"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Options configures a Service. Remote may be nil to run purely local.
type Options struct {
	Remote        parking.Repository
	Catalog       *parking.Catalog
	Routes        *route.Synthesizer
	CacheTTL      time.Duration
	RemoteTimeout time.Duration
	Logger        *log.Logger
}

// Service is the search orchestrator. It owns the result cache and the list
// of live results that availability events must keep current.
type Service struct {
	remote  parking.Repository
	catalog *parking.Catalog
	routes  *route.Synthesizer
	cache   *resultCache
	timeout time.Duration
	logger  *log.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	live  []*Result
}

// NewService wires an orchestrator from options, applying defaults for
// anything unset.
func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = parking.DefaultCatalog()
	}
	if opts.Routes == nil {
		opts.Routes = route.NewSynthesizer(time.Now().UnixNano())
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "search ", log.LstdFlags)
	}
	return &Service{
		remote:  opts.Remote,
		catalog: opts.Catalog,
		routes:  opts.Routes,
		cache:   newResultCache(opts.CacheTTL),
		timeout: opts.RemoteTimeout,
		logger:  opts.Logger,
		state:   StateIdle,
	}
}

// State returns the orchestrator's current cycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Search runs one full cycle for origin and returns the best facility with
// a display route, or a *Failure. It is the only entry point the UI
// collaborator calls.
func (s *Service) Search(ctx context.Context, origin geo.Location, filters parking.Filters) (*Result, error) {
	if !origin.Valid() {
		return nil, failf(FailInvalidLocation, nil, "origin coordinates out of range")
	}

	gen := s.begin()
	res, err := s.run(ctx, gen, origin, filters)
	s.finish(err)
	if res != nil {
		res = s.snapshot(res)
	}
	return res, err
}

// snapshot copies a result under the same mutex ApplyAvailability writes
// under. The canonical object stays in the cache and live list where patches
// land; the caller gets a private value it can marshal without racing a
// concurrent availability event. The route slice is immutable after assembly
// and safe to share.
func (s *Service) snapshot(res *Result) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &Result{
		Route:         res.Route,
		QueryLocation: res.QueryLocation,
		Timestamp:     res.Timestamp,
	}
	primary := *res.Primary
	out.Primary = &primary
	for _, alt := range res.Alternatives {
		a := *alt
		out.Alternatives = append(out.Alternatives, &a)
	}
	return out
}

// begin starts a cycle, superseding any in-flight one: the older cycle's
// commit will notice its generation is stale and skip cache population.
func (s *Service) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSearching
	s.gen++
	return s.gen
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
}

func (s *Service) run(ctx context.Context, gen uint64, origin geo.Location, filters parking.Filters) (*Result, error) {
	key := cacheKey(origin, filters)
	if res, ok := s.cache.get(key); ok {
		return res, nil
	}

	// Remote first. Failures and empty rankings both fall back to the
	// local catalog; the two sources may legitimately disagree.
	var remoteErr error
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		facilities, err := s.remote.QueryCandidates(rctx, origin, filters)
		cancel()
		switch {
		case err != nil:
			remoteErr = err
			s.logger.Printf("remote query failed, falling back to local catalog: %v", err)
		default:
			ranked, err := score.Rank(origin, facilities, filters)
			if err == nil {
				return s.commit(gen, key, origin, ranked), nil
			}
			if !errors.Is(err, score.ErrNoCandidates) {
				return nil, failf(FailInternal, err, "scoring remote candidates")
			}
			s.logger.Printf("remote returned no eligible facilities, falling back to local catalog")
		}
	}

	facilities, err := s.catalog.QueryCandidates(ctx, origin, filters)
	if err != nil {
		return nil, failf(FailInternal, err, "querying local catalog")
	}

	ranked, err := score.Rank(origin, facilities, filters)
	if err != nil {
		if !errors.Is(err, score.ErrNoCandidates) {
			return nil, failf(FailInternal, err, "scoring local candidates")
		}
		// Both sources are exhausted. A rate-limited remote is the one
		// failure the caller must see with the server's own message.
		var rateErr *remote.RateLimitedError
		if errors.As(remoteErr, &rateErr) {
			return nil, failf(FailRateLimited, remoteErr, rateErr.Message)
		}
		return nil, failf(FailNoAvailability, remoteErr, "no parking available near the requested location")
	}
	return s.commit(gen, key, origin, ranked), nil
}

// commit assembles the result and, if this cycle is still the latest,
// publishes it to the cache and the live-patch list. A superseded cycle
// still returns its result to its own caller but leaves shared state alone.
func (s *Service) commit(gen uint64, key string, origin geo.Location, ranked []score.Candidate) *Result {
	primary := ranked[0]
	res := &Result{
		Primary:       &primary,
		Route:         s.routes.Polyline(origin, primary.Location),
		QueryLocation: origin,
		Timestamp:     time.Now().UTC(),
	}
	for i := 1; i < len(ranked) && i <= maxAlternatives; i++ {
		alt := ranked[i]
		res.Alternatives = append(res.Alternatives, &alt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.cache.put(key, res)
		s.live = append(s.live, res)
		if len(s.live) > liveResultLimit {
			s.live = s.live[len(s.live)-liveResultLimit:]
		}
	}
	return res
}

// ApplyAvailability is the bus listener: it updates the in-memory facility
// record and patches every live result that embeds the facility, so repeat
// reads of a cached entry see the new flag. Ranking and distances are
// deliberately left alone; this is a targeted patch, not a re-search.
func (s *Service) ApplyAvailability(ev bus.Event) {
	if _, ok := s.catalog.SetAvailability(ev.FacilityID, ev.Available); !ok {
		s.logger.Printf("availability event for unknown facility %d ignored", ev.FacilityID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range s.live {
		if res.Primary.ID == ev.FacilityID {
			res.Primary.Available = ev.Available
		}
		for _, alt := range res.Alternatives {
			if alt.ID == ev.FacilityID {
				alt.Available = ev.Available
			}
		}
	}
}

// Invalidate drops the cached result for one query location, used when the
// UI collaborator switches locations instead of waiting out the TTL.
func (s *Service) Invalidate(origin geo.Location, filters parking.Filters) {
	s.cache.invalidate(cacheKey(origin, filters))
}

// InvalidateAll clears the whole result cache.
func (s *Service) InvalidateAll() {
	s.cache.invalidateAll()
}
