package match

import (
	"log/slog"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// Config holds the tunable clustering parameters.
type Config struct {
	// Threshold is the minimum pairwise similarity for an edge.
	Threshold float64
	// MinVenues is the minimum number of distinct venues per cluster.
	MinVenues int
	// BlockWindow bounds the pairwise comparison: only records whose end
	// times fall in the same or adjacent window are compared.
	BlockWindow time.Duration
}

// Defaults fills unset fields with the engine defaults.
func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 0.5
	}
	if c.MinVenues < 2 {
		c.MinVenues = 2
	}
	if c.BlockWindow <= 0 {
		c.BlockWindow = 72 * time.Hour
	}
	return c
}

// Cluster is a set of same-event listings spanning at least MinVenues
// distinct venues, with at most one record per venue.
type Cluster struct {
	Members []domain.MarketRecord
	// MatchScore is the minimum pairwise similarity among the retained
	// members. One weak link should not overstate confidence for the whole
	// cluster.
	MatchScore float64
}

// Grouper clusters listings across venues by title similarity.
type Grouper struct {
	cfg    Config
	logger *slog.Logger
}

// NewGrouper creates a Grouper with the given configuration.
func NewGrouper(cfg Config, logger *slog.Logger) *Grouper {
	return &Grouper{
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "grouper")),
	}
}

// candidate is a record with its normalization cached, so each title is
// normalized and tokenized once rather than once per pair.
type candidate struct {
	rec        domain.MarketRecord
	normalized string
	tokens     []string
}

// noEndTimeBlock collects records without an end time; they are compared only
// among themselves.
const noEndTimeBlock = int64(-1 << 62)

// Group clusters the given records. Ineligible records (missing price or
// volume, inactive, untitled) are skipped up front; a record that matches no
// other record above the threshold is not emitted.
func (g *Grouper) Group(records []domain.MarketRecord) []Cluster {
	cands := make([]candidate, 0, len(records))
	for _, r := range records {
		if !r.Eligible() {
			continue
		}
		n := NormalizeTitle(r.Title)
		toks := Tokenize(n)
		if len(toks) == 0 {
			continue
		}
		cands = append(cands, candidate{rec: r, normalized: n, tokens: toks})
	}
	if len(cands) < 2 {
		return nil
	}

	blocks := g.assignBlocks(cands)
	uf := newUnionFind(len(cands))
	scores := make(map[[2]int]float64)

	pair := func(i, j int) {
		// Records from the same venue never form an edge directly; they can
		// still end up in one component through a shared match and are
		// deduplicated below.
		if cands[i].rec.Venue == cands[j].rec.Venue {
			return
		}
		s := scoreNormalized(cands[i].normalized, cands[j].normalized, cands[i].tokens, cands[j].tokens)
		scores[scoreKey(i, j)] = s
		if s >= g.cfg.Threshold {
			uf.union(i, j)
		}
	}

	for blk, idxs := range blocks {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				pair(idxs[a], idxs[b])
			}
		}
		if blk == noEndTimeBlock {
			continue
		}
		// Compare against the adjacent window so near-boundary end times
		// still meet.
		for _, j := range blocks[blk+1] {
			for _, i := range idxs {
				pair(i, j)
			}
		}
	}

	components := make(map[int][]int)
	for i := range cands {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var clusters []Cluster
	for _, idxs := range components {
		if len(idxs) < 2 {
			continue
		}
		cluster, ok := g.buildCluster(cands, idxs, scores)
		if ok {
			clusters = append(clusters, cluster)
		}
	}

	g.logger.Debug("clustering complete",
		slog.Int("records", len(records)),
		slog.Int("eligible", len(cands)),
		slog.Int("clusters", len(clusters)),
	)
	return clusters
}

// buildCluster deduplicates same-venue members (higher total volume wins),
// enforces the venue minimum, and computes the conservative match score.
func (g *Grouper) buildCluster(cands []candidate, idxs []int, scores map[[2]int]float64) (Cluster, bool) {
	byVenue := make(map[domain.Venue]int, len(idxs))
	for _, i := range idxs {
		v := cands[i].rec.Venue
		if prev, ok := byVenue[v]; ok && cands[prev].rec.VolumeTotal >= cands[i].rec.VolumeTotal {
			continue
		}
		byVenue[v] = i
	}
	if len(byVenue) < g.cfg.MinVenues {
		return Cluster{}, false
	}

	retained := make([]int, 0, len(byVenue))
	for _, i := range byVenue {
		retained = append(retained, i)
	}

	matchScore := 1.0
	for a := 0; a < len(retained); a++ {
		for b := a + 1; b < len(retained); b++ {
			i, j := retained[a], retained[b]
			s, ok := scores[scoreKey(i, j)]
			if !ok {
				// Members connected through a dropped duplicate may never
				// have been compared directly.
				s = scoreNormalized(cands[i].normalized, cands[j].normalized, cands[i].tokens, cands[j].tokens)
			}
			if s < matchScore {
				matchScore = s
			}
		}
	}

	members := make([]domain.MarketRecord, 0, len(retained))
	for _, i := range retained {
		members = append(members, cands[i].rec)
	}
	return Cluster{Members: members, MatchScore: matchScore}, true
}

// assignBlocks buckets candidate indexes by end-time window.
func (g *Grouper) assignBlocks(cands []candidate) map[int64][]int {
	blocks := make(map[int64][]int)
	windowSec := int64(g.cfg.BlockWindow / time.Second)
	for i, c := range cands {
		blk := noEndTimeBlock
		if t := c.rec.EndTime; t != nil {
			blk = t.Unix() / windowSec
		}
		blocks[blk] = append(blocks[blk], i)
	}
	return blocks
}

func scoreKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// unionFind is a plain disjoint-set with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[ri] = rj
	}
}
