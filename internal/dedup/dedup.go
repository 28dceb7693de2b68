// Package dedup collapses near-duplicate claim photos into clusters and
// keeps the sharpest photo of each.
package dedup

import (
	"context"
	"image"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/fetch"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/phash"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/quality"
)

// Config controls clustering
type Config struct {
	// HashDistanceThreshold is the maximum Hamming distance to a cluster
	// anchor for an image to join that cluster.
	HashDistanceThreshold int
	// BlurThreshold drops clusters whose representative is not sharp enough
	BlurThreshold float64
	// Workers bounds concurrent fetch+hash work; <= 0 means 1
	Workers int
}

// DefaultConfig returns threshold 6, blur 100, 4 workers
func DefaultConfig() Config {
	return Config{HashDistanceThreshold: 6, BlurThreshold: 100, Workers: 4}
}

// Member is one successfully fetched image inside a cluster
type Member struct {
	Index       int
	Reference   domain.ImageReference
	Fingerprint phash.Fingerprint
	Sharpness   float64
	Image       image.Image
}

// Cluster groups images whose fingerprints lie within the threshold of the
// anchor, which is always Members[0].
type Cluster struct {
	Members        []Member
	Representative int // index into Members
	// Dropped is set when the representative is below the blur threshold
	Dropped bool
}

// Rep returns the representative member
func (c Cluster) Rep() Member {
	return c.Members[c.Representative]
}

// Failure records an image that could not be fetched or hashed
type Failure struct {
	Index     int
	Reference domain.ImageReference
	Err       error
}

// Result of clustering one claim's images
type Result struct {
	// Clusters in order of their anchor's input position
	Clusters []Cluster
	// Kept are the representatives of clusters that survived the blur
	// check, in input order of the representative.
	Kept   []Member
	Failed []Failure
}

// Duplicates returns the input indexes of images discarded as duplicates:
// non-representative members of kept clusters plus every member of a
// dropped cluster.
func (r Result) Duplicates() []int {
	var out []int
	for _, c := range r.Clusters {
		for i, m := range c.Members {
			if c.Dropped || i != c.Representative {
				out = append(out, m.Index)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Clusterer fetches, fingerprints and groups images
type Clusterer struct {
	fetcher fetch.Fetcher
	config  Config
	logger  *slog.Logger
}

// NewClusterer wires a clusterer to its fetcher
func NewClusterer(fetcher fetch.Fetcher, cfg Config, logger *slog.Logger) *Clusterer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Clusterer{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With("component", "dedup"),
	}
}

type prepared struct {
	member Member
	err    error
}

// Cluster fetches and fingerprints every reference on a bounded pool, then
// groups them sequentially in input order so the outcome is deterministic.
//
// Grouping is greedy first-fit against each cluster's anchor: O(n*k) for n
// images and k clusters. It is not an optimal clustering; an image may sit
// within the threshold of several anchors and simply joins the first.
func (c *Clusterer) Cluster(ctx context.Context, refs []domain.ImageReference) Result {
	slots := make([]prepared, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for i, ref := range refs {
		g.Go(func() error {
			slots[i] = c.prepare(gctx, i, ref)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, s := range slots {
		if s.err != nil {
			c.logger.Warn("image skipped during clustering",
				"image", refs[i], "error", s.err)
			res.Failed = append(res.Failed, Failure{Index: i, Reference: refs[i], Err: s.err})
			continue
		}
		res.Clusters = assign(res.Clusters, s.member, c.config.HashDistanceThreshold)
	}

	dropped := 0
	for ci := range res.Clusters {
		cl := &res.Clusters[ci]
		for mi := range cl.Members {
			if mi != cl.Representative {
				cl.Members[mi].Image = nil
			}
		}
		if cl.Rep().Sharpness < c.config.BlurThreshold {
			cl.Dropped = true
			dropped++
			continue
		}
		res.Kept = append(res.Kept, cl.Rep())
	}
	slices.SortFunc(res.Kept, func(a, b Member) int { return a.Index - b.Index })

	c.logger.Debug("clustering complete",
		"images", len(refs),
		"clusters", len(res.Clusters),
		"kept", len(res.Kept),
		"dropped_clusters", dropped,
		"failed", len(res.Failed))

	return res
}

func (c *Clusterer) prepare(ctx context.Context, i int, ref domain.ImageReference) prepared {
	if err := ctx.Err(); err != nil {
		return prepared{err: err}
	}
	img, err := c.fetcher.Fetch(ctx, ref.String())
	if err != nil {
		return prepared{err: err}
	}
	fp, err := phash.Compute(img)
	if err != nil {
		return prepared{err: err}
	}
	return prepared{member: Member{
		Index:       i,
		Reference:   ref,
		Fingerprint: fp,
		Sharpness:   quality.Sharpness(img),
		Image:       img,
	}}
}

// assign places m in the first cluster whose anchor is within threshold,
// or opens a new one. Ties on sharpness keep the earlier member.
func assign(clusters []Cluster, m Member, threshold int) []Cluster {
	for ci := range clusters {
		cl := &clusters[ci]
		if cl.Members[0].Fingerprint.Distance(m.Fingerprint) <= threshold {
			cl.Members = append(cl.Members, m)
			if m.Sharpness > cl.Rep().Sharpness {
				cl.Representative = len(cl.Members) - 1
			}
			return clusters
		}
	}
	return append(clusters, Cluster{Members: []Member{m}})
}
