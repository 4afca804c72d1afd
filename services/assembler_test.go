package services

import (
	"testing"

	"lookbookapi/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemblyProduct(sku, slot, category, color string, aesthetics []string, formality int, statement bool) models.Product {
	return models.Product{
		SkuID:             sku,
		FunctionalSlot:    slot,
		Category:          category,
		PrimaryColor:      color,
		FashionAesthetics: pq.StringArray(aesthetics),
		FormalityScore:    formality,
		StatementPiece:    statement,
	}
}

func defaultAssembly() AssemblyConfig {
	return AssemblyConfig{IntraFormalitySpread: 2}
}

func occasionCluster(candidates ...Candidate) *Cluster {
	return &Cluster{Dimension: DimensionOccasion, Value: "Gym", Candidates: candidates}
}

func asCandidate(p models.Product, score float64) Candidate {
	return Candidate{Product: p, Score: score, Slot: p.Slot()}
}

func TestAssembleLookNeedsThreeItems(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Sneaker", "White", nil, 1, false)

	look := AssembleLook(&anchor, occasionCluster(asCandidate(shoe, 0.9)), PairScoreTable{}, defaultAssembly())
	assert.Nil(t, look, "anchor plus one item is not an outfit")
}

func TestAssembleLookNeedsFootwearOrAccessory(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	pants := assemblyProduct("PANTS", models.SlotPrimaryBottom, "Chinos", "Navy", nil, 1, false)
	jacket := assemblyProduct("JACKET", models.SlotOuterwear, "Blazer", "Navy", nil, 1, false)

	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(pants, 0.9), asCandidate(jacket, 0.8)),
		PairScoreTable{}, defaultAssembly())
	assert.Nil(t, look, "clothes without footwear or accessory read unfinished")

	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Sneaker", "White", nil, 1, false)
	look = AssembleLook(&anchor,
		occasionCluster(asCandidate(pants, 0.9), asCandidate(jacket, 0.8), asCandidate(shoe, 0.7)),
		PairScoreTable{}, defaultAssembly())
	require.NotNil(t, look)
	assert.Len(t, look.MemberSkus, 4)
}

func TestAssembleLookStatementTopRejectsAthleticBottoms(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Shirt", "Red", nil, 2, true)
	joggers := assemblyProduct("JOG", models.SlotPrimaryBottom, "Joggers", "Black", []string{"Athletic"}, 1, false)
	chinos := assemblyProduct("CHI", models.SlotPrimaryBottom, "Chinos", "Black", []string{"Classic"}, 2, false)
	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Loafer", "Black", nil, 2, false)

	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(joggers, 0.95), asCandidate(chinos, 0.5), asCandidate(shoe, 0.7)),
		PairScoreTable{}, defaultAssembly())
	require.NotNil(t, look)
	// The athletic joggers outscore the chinos but clash with the statement top.
	assert.Equal(t, "CHI", look.Items[models.NormalizeSlot(models.SlotPrimaryBottom)].SkuID)
}

func TestAssembleLookStatementTopRejectsClosedOuterwear(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Shirt", "Red", nil, 2, true)
	hoodie := assemblyProduct("HOOD", models.SlotOuterwear, "Hoodie", "Gray", nil, 2, false)
	coat := assemblyProduct("COAT", models.SlotOuterwear, "Overcoat", "Gray", nil, 2, false)
	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Loafer", "Black", nil, 2, false)

	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(hoodie, 0.95), asCandidate(coat, 0.5), asCandidate(shoe, 0.7)),
		PairScoreTable{}, defaultAssembly())
	require.NotNil(t, look)
	assert.Equal(t, "COAT", look.Items[models.NormalizeSlot(models.SlotOuterwear)].SkuID)
}

func TestAssembleLookIntraFormalitySpread(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	formalShoe := assemblyProduct("OXFORD", models.SlotFootwear, "Oxford", "Black", nil, 4, false)
	sneaker := assemblyProduct("SNEAK", models.SlotFootwear, "Sneaker", "White", nil, 1, false)

	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(formalShoe, 0.95), asCandidate(sneaker, 0.5)),
		PairScoreTable{}, defaultAssembly())
	// Only the sneaker survives, leaving a two-item look that gets rejected.
	assert.Nil(t, look)

	pants := assemblyProduct("PANTS", models.SlotPrimaryBottom, "Joggers", "Black", nil, 1, false)
	look = AssembleLook(&anchor,
		occasionCluster(asCandidate(formalShoe, 0.95), asCandidate(sneaker, 0.5), asCandidate(pants, 0.8)),
		PairScoreTable{}, defaultAssembly())
	require.NotNil(t, look)
	assert.Equal(t, "SNEAK", look.Items[models.NormalizeSlot(models.SlotFootwear)].SkuID)
}

func TestAssembleLookAccessoryPaletteRule(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	pants := assemblyProduct("PANTS", models.SlotPrimaryBottom, "Chinos", "Black", nil, 1, false)
	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Sneaker", "Black", nil, 1, false)
	greenBag := assemblyProduct("BAG_G", models.SlotAccessory, "Bag", "Green", nil, 1, false)
	blackBag := assemblyProduct("BAG_B", models.SlotAccessory, "Bag", "Black", nil, 1, false)

	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(pants, 0.9), asCandidate(shoe, 0.8),
			asCandidate(greenBag, 0.95), asCandidate(blackBag, 0.4)),
		PairScoreTable{}, defaultAssembly())
	require.NotNil(t, look)
	// All-black look: the green bag breaks the monochrome palette.
	assert.Equal(t, "BAG_B", look.Items[models.NormalizeSlot(models.SlotAccessory)].SkuID)
}

func TestAssembleLookPicksHighestCoherenceIncrement(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	shoeA := assemblyProduct("SHOE_A", models.SlotFootwear, "Sneaker", "White", nil, 1, false)
	shoeB := assemblyProduct("SHOE_B", models.SlotFootwear, "Sneaker", "Black", nil, 1, false)
	pants := assemblyProduct("PANTS", models.SlotPrimaryBottom, "Chinos", "Black", nil, 1, false)

	table := PairScoreTable{
		PairKey("TOP", "SHOE_A"): 0.5,
		PairKey("TOP", "SHOE_B"): 0.9,
		PairKey("TOP", "PANTS"):  0.8,
	}
	look := AssembleLook(&anchor,
		occasionCluster(asCandidate(shoeA, 0.95), asCandidate(shoeB, 0.6), asCandidate(pants, 0.8)),
		table, defaultAssembly())
	require.NotNil(t, look)
	// Anchor edge order favors SHOE_A, but pair scores favor SHOE_B.
	assert.Equal(t, "SHOE_B", look.Items[models.NormalizeSlot(models.SlotFootwear)].SkuID)
}

func TestAssembleLookIsDeterministic(t *testing.T) {
	anchor := assemblyProduct("TOP", models.SlotBaseTop, "Tee", "Black", nil, 1, false)
	pants := assemblyProduct("PANTS", models.SlotPrimaryBottom, "Chinos", "Black", nil, 1, false)
	shoe := assemblyProduct("SHOE", models.SlotFootwear, "Sneaker", "Black", nil, 1, false)
	cluster := occasionCluster(asCandidate(pants, 0.9), asCandidate(shoe, 0.8))
	table := PairScoreTable{PairKey("PANTS", "SHOE"): 0.7}

	first := AssembleLook(&anchor, cluster, table, defaultAssembly())
	second := AssembleLook(&anchor, cluster, table, defaultAssembly())
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.MemberSkus, second.MemberSkus)
	assert.Equal(t, first.Coherence, second.Coherence)
}
