package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"lookbookapi/models"
)

// LookGeneratorConfig collects every tunable of the generation pipeline.
// LoadLookGeneratorConfig reads it from the environment with the documented
// defaults.
type LookGeneratorConfig struct {
	MinEdgeScore   float64
	MaxLooks       int
	CacheTTL       time.Duration
	CacheCapacity  int64
	StoreTimeout   time.Duration
	RequestTimeout time.Duration
	Validity       ValidityConfig
	Assembly       AssemblyConfig
}

func LoadLookGeneratorConfig() LookGeneratorConfig {
	return LookGeneratorConfig{
		MinEdgeScore:   GetEnvFloat("LOOKS_MIN_EDGE_SCORE", 0.5),
		MaxLooks:       GetEnvInt("LOOKS_MAX", 10),
		CacheTTL:       time.Duration(GetEnvInt("LOOKS_CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheCapacity:  int64(GetEnvInt("LOOKS_CACHE_CAPACITY", 2048)),
		StoreTimeout:   time.Duration(GetEnvInt("LOOKS_STORE_TIMEOUT_MS", 300)) * time.Millisecond,
		RequestTimeout: time.Duration(GetEnvInt("LOOKS_REQUEST_TIMEOUT_MS", 1000)) * time.Millisecond,
		Validity: ValidityConfig{
			FormalitySpread:    GetEnvInt("LOOKS_FORMALITY_SPREAD", 2),
			StrictAesthetics:   GetEnvBool("LOOKS_STRICT_AESTHETICS", false),
			EmptySetMatchesAll: GetEnvBool("LOOKS_EMPTY_SET_MATCHES_ALL", true),
		},
		Assembly: AssemblyConfig{
			IntraFormalitySpread: GetEnvInt("LOOKS_INTRA_FORMALITY_SPREAD", 2),
		},
	}
}

// LookGenerator turns an anchor sku into a set of dimension-themed looks
// using the precomputed compatibility graph.
type LookGenerator struct {
	products ProductStore
	edges    EdgeStore
	cache    *FingerprintCache
	cfg      LookGeneratorConfig
}

func NewLookGenerator(products ProductStore, edges EdgeStore, cache *FingerprintCache, cfg LookGeneratorConfig) *LookGenerator {
	return &LookGenerator{products: products, edges: edges, cache: cache, cfg: cfg}
}

func (g *LookGenerator) Config() LookGeneratorConfig {
	return g.cfg
}

// Generate builds up to numLooks looks around the anchor sku. Results are
// memoized per (anchor, numLooks) fingerprint; cached responses are returned
// as-is and must not be mutated by callers.
func (g *LookGenerator) Generate(ctx context.Context, anchorSku string, numLooks int) (*models.LooksResponse, error) {
	if anchorSku == "" {
		return nil, fmt.Errorf("%w: anchor sku is required", ErrInvalidArgument)
	}
	if numLooks < 1 || numLooks > g.cfg.MaxLooks {
		return nil, fmt.Errorf("%w: num_looks must be between 1 and %v", ErrInvalidArgument, g.cfg.MaxLooks)
	}

	if cached := g.cache.Get(ctx, anchorSku, numLooks); cached != nil {
		return cached, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	anchor, err := g.fetchAnchor(reqCtx, anchorSku)
	if err != nil {
		return nil, err
	}

	edges, err := g.fetchNeighbors(reqCtx, anchorSku)
	if err != nil {
		return nil, err
	}

	response := &models.LooksResponse{Anchor: *anchor}
	if len(edges) > 0 {
		candidates, err := g.fetchCandidates(reqCtx, anchor, edges)
		if err != nil {
			return nil, err
		}
		looks, err := g.assemble(reqCtx, anchor, candidates, numLooks)
		if err != nil {
			return nil, err
		}
		response.Looks = looks
	}
	response.TotalLooks = len(response.Looks)

	// A response computed for a caller that already gave up is not worth
	// caching; it may be partial in spirit even when complete in shape.
	if ctx.Err() == nil && reqCtx.Err() == nil {
		if err := g.cache.Put(ctx, anchorSku, numLooks, response); err != nil {
			return response, nil
		}
	}
	return response, nil
}

func (g *LookGenerator) fetchAnchor(ctx context.Context, anchorSku string) (*models.Product, error) {
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.StoreTimeout)
	defer cancel()
	anchor, err := g.products.Get(storeCtx, anchorSku)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching anchor: %v", ErrStoreUnavailable, err)
	}
	if anchor == nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchorNotFound, anchorSku)
	}
	return anchor, nil
}

func (g *LookGenerator) fetchNeighbors(ctx context.Context, anchorSku string) ([]Edge, error) {
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.StoreTimeout)
	defer cancel()
	edges, err := g.edges.Neighbors(storeCtx, anchorSku, g.cfg.MinEdgeScore)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching neighbors: %v", ErrStoreUnavailable, err)
	}
	return edges, nil
}

// fetchCandidates hydrates neighbor products and applies the validity
// filter, preserving the edge ordering.
func (g *LookGenerator) fetchCandidates(ctx context.Context, anchor *models.Product, edges []Edge) ([]Candidate, error) {
	skus := make([]string, 0, len(edges))
	for _, edge := range edges {
		skus = append(skus, edge.PeerSku)
	}

	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.StoreTimeout)
	defer cancel()
	products, err := g.products.GetMany(storeCtx, skus)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching candidates: %v", ErrStoreUnavailable, err)
	}
	if len(products) == 0 {
		// Edges reference skus the product store cannot resolve at all:
		// the stores disagree, treat it as an outage rather than an
		// empty catalog.
		return nil, fmt.Errorf("%w: edge peers missing from product store", ErrStoreUnavailable)
	}

	bySku := make(map[string]*models.Product, len(products))
	for i := range products {
		bySku[products[i].SkuID] = &products[i]
	}

	candidates := make([]Candidate, 0, len(edges))
	for _, edge := range edges {
		product, ok := bySku[edge.PeerSku]
		if !ok {
			// The graph references a sku the catalog no longer has.
			log.Printf("dropping edge peer %v of %v: not in product store", edge.PeerSku, anchor.SkuID)
			continue
		}
		if !ValidPair(anchor, product, g.cfg.Validity) {
			continue
		}
		candidates = append(candidates, Candidate{
			Product: *product,
			Score:   edge.Score,
			Slot:    product.Slot(),
		})
	}
	return candidates, nil
}

func (g *LookGenerator) assemble(ctx context.Context, anchor *models.Product, candidates []Candidate, numLooks int) ([]models.Look, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	skus := make([]string, 0, len(candidates)+1)
	skus = append(skus, anchor.SkuID)
	for _, cand := range candidates {
		skus = append(skus, cand.Product.SkuID)
	}
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.StoreTimeout)
	scores, err := g.edges.PairScores(storeCtx, skus)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching pair scores: %v", ErrStoreUnavailable, err)
	}

	clusters := BuildClusters(anchor, candidates)
	selector := NewClusterSelector(clusters)

	var looks []models.Look
	seen := []map[string]bool{}
	for len(looks) < numLooks {
		cluster := selector.Next()
		if cluster == nil {
			break
		}
		assembled := AssembleLook(anchor, cluster, PairScoreTable(scores), g.cfg.Assembly)
		if assembled == nil {
			continue
		}
		set := assembled.SkuSet()
		if duplicateSet(seen, set) {
			continue
		}
		seen = append(seen, set)
		selector.Emit(set)
		looks = append(looks, g.toLook(len(looks)+1, assembled))
	}
	return looks, nil
}

func duplicateSet(seen []map[string]bool, set map[string]bool) bool {
	for _, other := range seen {
		if len(other) != len(set) {
			continue
		}
		same := true
		for sku := range set {
			if !other[sku] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func (g *LookGenerator) toLook(position int, assembled *AssembledLook) models.Look {
	items := make(map[string]models.LookItem, len(assembled.Items))
	for slot, product := range assembled.Items {
		items[slot] = models.LookItem{
			SkuID:    product.SkuID,
			Title:    product.Title,
			Brand:    product.Brand,
			ImageURL: product.ImageURL,
			Type:     product.Type,
			Color:    product.PrimaryColor,
			Slot:     slot,
		}
	}
	return models.Look{
		ID:             fmt.Sprintf("look_%v", position),
		Name:           assembled.Cluster.DisplayName(),
		Dimension:      assembled.Cluster.Dimension,
		DimensionValue: assembled.Cluster.Value,
		Coherence:      assembled.Coherence,
		Items:          items,
		SlotsFilled:    assembled.SlotsFilled,
	}
}
