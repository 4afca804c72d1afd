package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"lookbookapi/models"
	"lookbookapi/services"

	"github.com/lib/pq"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func Contains(items []string, lookFor string) bool {

	for i := 0; i < len(items); i++ {

		if items[i] == lookFor {
			return true
		}
	}
	return false
}

func NewRefString(data string) *string {
	return &data
}

// MemoryProductStore is an in-memory ProductStore for tests.
type MemoryProductStore struct {
	Products map[string]models.Product
	Err      error
	// GetManyEmpty forces GetMany to return nothing, simulating a product
	// store that lost sync with the edge store.
	GetManyEmpty bool
	// Delay makes every call wait before answering, or bail out with the
	// context error first, simulating a slow database.
	Delay time.Duration
}

func (s *MemoryProductStore) wait(ctx context.Context) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func (s *MemoryProductStore) Get(ctx context.Context, skuID string) (*models.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	product, ok := s.Products[skuID]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

func (s *MemoryProductStore) GetMany(ctx context.Context, skuIDs []string) ([]models.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.GetManyEmpty {
		return nil, nil
	}
	var products []models.Product
	for _, sku := range skuIDs {
		if product, ok := s.Products[sku]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

// MemoryEdgeStore is an in-memory EdgeStore for tests. NeighborCalls counts
// Neighbors invocations so cache-hit tests can assert no recompute happened.
type MemoryEdgeStore struct {
	EdgesBySku    map[string][]services.Edge
	Pairs         map[string]float64
	Err           error
	NeighborCalls int
}

func (s *MemoryEdgeStore) Neighbors(ctx context.Context, skuID string, minScore float64) ([]services.Edge, error) {
	s.NeighborCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var edges []services.Edge
	for _, edge := range s.EdgesBySku[skuID] {
		if edge.Score >= minScore {
			edges = append(edges, edge)
		}
	}
	services.SortEdges(edges)
	return edges, nil
}

func (s *MemoryEdgeStore) PairScores(ctx context.Context, skuIDs []string) (map[string]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inSet := map[string]bool{}
	for _, sku := range skuIDs {
		inSet[sku] = true
	}
	scores := map[string]float64{}
	for key, score := range s.Pairs {
		parts := strings.SplitN(key, "|", 2)
		if inSet[parts[0]] && inSet[parts[1]] {
			scores[key] = score
		}
	}
	return scores, nil
}

func fakeProduct(sku, title, slot, category, color string, occasion, aesthetics []string, formality int, statement bool) models.Product {
	return models.Product{
		SkuID:             sku,
		Title:             title,
		Brand:             "Corner Street",
		ImageURL:          fmt.Sprintf("products/%s.jpg", strings.ToLower(sku)),
		Type:              category,
		Category:          category,
		FunctionalSlot:    slot,
		PrimaryColor:      color,
		Occasion:          pq.StringArray(occasion),
		FashionAesthetics: pq.StringArray(aesthetics),
		Season:            pq.StringArray(nil),
		FormalityScore:    formality,
		StatementPiece:    statement,
	}
}

// SeedGymCatalog builds a small deterministic catalog around one athletic
// tank top anchor. The edge scores are chosen so occasion, aesthetic and
// color clusters each produce one distinct look.
func SeedGymCatalog() (*MemoryProductStore, *MemoryEdgeStore) {
	anchor := "GYM_TANK_001"
	products := map[string]models.Product{
		anchor: fakeProduct(anchor, "Breathe Tank", models.SlotBaseTop, "Tank", "Black",
			[]string{"Gym", "Casual", "Everyday"}, []string{"Athletic", "Streetwear"}, 1, false),
		"SHORTS_001": fakeProduct("SHORTS_001", "Split Shorts", models.SlotPrimaryBottom, "Shorts", "Black",
			[]string{"Gym"}, []string{"Athletic"}, 1, false),
		"JOGGERS_001": fakeProduct("JOGGERS_001", "Fleece Joggers", models.SlotPrimaryBottom, "Joggers", "Gray",
			nil, []string{"Streetwear"}, 1, false),
		"SNEAKER_001": fakeProduct("SNEAKER_001", "Court Runner", models.SlotFootwear, "Sneaker", "White",
			[]string{"Gym", "Casual", "Everyday"}, []string{"Athletic"}, 1, false),
		"SNEAKER_002": fakeProduct("SNEAKER_002", "Night Runner", models.SlotFootwear, "Sneaker", "Black",
			nil, []string{"Streetwear"}, 1, false),
		"CAP_001": fakeProduct("CAP_001", "Box Logo Cap", models.SlotAccessory, "Cap", "Black",
			[]string{"Gym", "Casual", "Everyday"}, []string{"Athletic", "Streetwear"}, 0, false),
		"HOODIE_001": fakeProduct("HOODIE_001", "Oversize Hoodie", models.SlotOuterwear, "Hoodie", "Gray",
			nil, []string{"Streetwear"}, 1, false),
		"BLAZER_001": fakeProduct("BLAZER_001", "Sharp Blazer", models.SlotOuterwear, "Blazer", "Navy",
			[]string{"Casual"}, []string{"Classic"}, 4, false),
	}

	anchorEdges := []services.Edge{
		{PeerSku: "SHORTS_001", TargetSlot: models.SlotPrimaryBottom, Score: 0.90},
		{PeerSku: "SNEAKER_001", TargetSlot: models.SlotFootwear, Score: 0.88},
		{PeerSku: "CAP_001", TargetSlot: models.SlotAccessory, Score: 0.85},
		{PeerSku: "JOGGERS_001", TargetSlot: models.SlotPrimaryBottom, Score: 0.82},
		{PeerSku: "SNEAKER_002", TargetSlot: models.SlotFootwear, Score: 0.80},
		{PeerSku: "HOODIE_001", TargetSlot: models.SlotOuterwear, Score: 0.78},
		{PeerSku: "BLAZER_001", TargetSlot: models.SlotOuterwear, Score: 0.75},
	}

	pairs := map[string]float64{}
	for _, edge := range anchorEdges {
		pairs[services.PairKey(anchor, edge.PeerSku)] = edge.Score
	}
	cross := []struct {
		a, b  string
		score float64
	}{
		{"SHORTS_001", "SNEAKER_001", 0.80},
		{"SHORTS_001", "CAP_001", 0.70},
		{"SNEAKER_001", "CAP_001", 0.72},
		{"SHORTS_001", "SNEAKER_002", 0.74},
		{"HOODIE_001", "JOGGERS_001", 0.85},
		{"HOODIE_001", "SNEAKER_002", 0.75},
		{"HOODIE_001", "CAP_001", 0.68},
		{"JOGGERS_001", "SNEAKER_002", 0.85},
		{"JOGGERS_001", "CAP_001", 0.66},
		{"SNEAKER_002", "CAP_001", 0.70},
	}
	for _, c := range cross {
		pairs[services.PairKey(c.a, c.b)] = c.score
	}

	productStore := &MemoryProductStore{Products: products}
	edgeStore := &MemoryEdgeStore{
		EdgesBySku: map[string][]services.Edge{anchor: anchorEdges},
		Pairs:      pairs,
	}
	return productStore, edgeStore
}

type AWSProviderMock struct {
	MockUrl string
}

func (awsService AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}

// URLCacheMock returns a deterministic URL per object key, or fails when
// FailWith is set to exercise the direct-presign fallback.
type URLCacheMock struct {
	FailWith error
}

func (m URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	return fmt.Sprintf("https://cdn.example.com/%s?sig=abc", objectKey), nil
}
