package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"lookbookapi/models"
)

// Edge is a neighbor of an anchor sku in the compatibility graph.
type Edge struct {
	PeerSku    string
	TargetSlot string
	Score      float64
}

// ProductStore reads catalog products. Get returns (nil, nil) when the sku
// does not exist; errors are reserved for store failures.
type ProductStore interface {
	Get(ctx context.Context, skuID string) (*models.Product, error)
	GetMany(ctx context.Context, skuIDs []string) ([]models.Product, error)
}

// EdgeStore reads the precomputed compatibility graph.
//
// Neighbors returns the outgoing edges of a sku with score >= minScore,
// ordered by score descending and peer sku ascending. PairScores returns
// every stored edge between any two skus of the given set, keyed by
// PairKey; when both directions exist the higher score wins.
type EdgeStore interface {
	Neighbors(ctx context.Context, skuID string, minScore float64) ([]Edge, error)
	PairScores(ctx context.Context, skuIDs []string) (map[string]float64, error)
}

// PairKey builds an order-independent key for a sku pair.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

type GormProductStore struct {
	DB *gorm.DB
}

func NewGormProductStore(db *gorm.DB) *GormProductStore {
	return &GormProductStore{DB: db}
}

func (s *GormProductStore) Get(ctx context.Context, skuID string) (*models.Product, error) {
	var products []models.Product
	result := s.DB.WithContext(ctx).Where("sku_id = ?", skuID).Limit(1).Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (s *GormProductStore) GetMany(ctx context.Context, skuIDs []string) ([]models.Product, error) {
	if len(skuIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	result := s.DB.WithContext(ctx).Where("sku_id IN ?", skuIDs).Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}
	return products, nil
}

type GormEdgeStore struct {
	DB *gorm.DB
}

func NewGormEdgeStore(db *gorm.DB) *GormEdgeStore {
	return &GormEdgeStore{DB: db}
}

func (s *GormEdgeStore) Neighbors(ctx context.Context, skuID string, minScore float64) ([]Edge, error) {
	var rows []models.CompatibilityEdge
	result := s.DB.WithContext(ctx).
		Where("sku_1 = ? AND score >= ?", skuID, minScore).
		Order("score DESC, sku_2 ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	edges := make([]Edge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, Edge{
			PeerSku:    row.Sku2,
			TargetSlot: row.TargetSlot,
			Score:      row.Score,
		})
	}
	return edges, nil
}

func (s *GormEdgeStore) PairScores(ctx context.Context, skuIDs []string) (map[string]float64, error) {
	scores := map[string]float64{}
	if len(skuIDs) < 2 {
		return scores, nil
	}
	var rows []models.CompatibilityEdge
	result := s.DB.WithContext(ctx).
		Where("sku_1 IN ? AND sku_2 IN ?", skuIDs, skuIDs).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	for _, row := range rows {
		key := PairKey(row.Sku1, row.Sku2)
		if existing, ok := scores[key]; !ok || row.Score > existing {
			scores[key] = row.Score
		}
	}
	return scores, nil
}

// SortEdges orders edges by score descending, then peer sku ascending.
// Memory-backed stores use it to match the database ordering.
func SortEdges(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		return edges[i].PeerSku < edges[j].PeerSku
	})
}
