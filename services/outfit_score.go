package services

import (
	"context"
	"fmt"

	"lookbookapi/models"
)

// ScoreOutfit evaluates an arbitrary set of skus against the compatibility
// graph. TotalScore is the raw sum of the known pair scores; AverageScore
// divides it by the number of known pairs. Pairs the graph never saw
// contribute nothing.
func ScoreOutfit(ctx context.Context, products ProductStore, edges EdgeStore, skuIDs []string) (*models.OutfitScoreResponse, error) {
	unique := make([]string, 0, len(skuIDs))
	seen := map[string]bool{}
	for _, sku := range skuIDs {
		if sku == "" || seen[sku] {
			return nil, fmt.Errorf("%w: sku_ids must be distinct and non-empty", ErrInvalidArgument)
		}
		seen[sku] = true
		unique = append(unique, sku)
	}

	found, err := products.GetMany(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching products: %v", ErrStoreUnavailable, err)
	}
	if len(found) != len(unique) {
		foundSet := map[string]bool{}
		for i := range found {
			foundSet[found[i].SkuID] = true
		}
		for _, sku := range unique {
			if !foundSet[sku] {
				return nil, fmt.Errorf("%w: %v", ErrAnchorNotFound, sku)
			}
		}
	}

	scores, err := edges.PairScores(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching pair scores: %v", ErrStoreUnavailable, err)
	}
	table := PairScoreTable(scores)

	pairScores := map[string]float64{}
	knownPairs := 0
	sum := 0.0
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			if score, ok := table.Score(unique[i], unique[j]); ok {
				pairScores[PairKey(unique[i], unique[j])] = score
				knownPairs++
				sum += score
			}
		}
	}

	average := 0.0
	if knownPairs > 0 {
		average = sum / float64(knownPairs)
	}

	return &models.OutfitScoreResponse{
		SkuIDs:       unique,
		TotalScore:   Round3(sum),
		PairScores:   pairScores,
		AverageScore: Round3(average),
		PairCount:    knownPairs,
	}, nil
}
