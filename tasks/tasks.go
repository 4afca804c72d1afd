package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"lookbookapi/models"
	"lookbookapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TypeLooksPrecompute        = "looks:precompute"
	TypeLooksPrecomputeMissing = "looks:precompute_missing"
)

type LooksPrecomputePayload struct {
	SkuID    string `json:"sku_id"`
	NumLooks int    `json:"num_looks"`
}

// Client initializes an asynq client for enqueuing tasks
func NewClient() (*asynq.Client, error) {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}), nil
}

// NewLooksPrecomputeTask enqueues look generation for one anchor sku.
func NewLooksPrecomputeTask(skuID string, numLooks int) (*asynq.Task, error) {
	payload, err := json.Marshal(LooksPrecomputePayload{SkuID: skuID, NumLooks: numLooks})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLooksPrecompute, payload), nil
}

// NewLooksPrecomputeMissingTask sweeps the catalog for anchors without a
// stored looks payload. Runs on the scheduler.
func NewLooksPrecomputeMissingTask(numLooks int) (*asynq.Task, error) {
	payload, err := json.Marshal(LooksPrecomputePayload{NumLooks: numLooks})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLooksPrecomputeMissing, payload), nil
}

// HandleLooksPrecomputeTask generates looks for one anchor and upserts the
// materialized payload. Retries are safe: the write is idempotent per sku.
func HandleLooksPrecomputeTask(ctx context.Context, t *asynq.Task, db *gorm.DB, generator *services.LookGenerator) error {
	var payload LooksPrecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Precompute: %v] Generating %v looks\n", payload.SkuID, payload.NumLooks)

	response, err := generator.Generate(ctx, payload.SkuID, payload.NumLooks)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Precompute failed for %v: %v", payload.SkuID, err))
		return err
	}

	body, err := json.Marshal(response)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Precompute: %v] Error marshaling looks payload: %v", payload.SkuID, err))
		return err
	}

	row := models.PrecomputedLook{
		SkuID:    payload.SkuID,
		NumLooks: payload.NumLooks,
		Payload:  body,
	}
	tx := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"num_looks", "payload", "updated_at"}),
	}).Create(&row)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Precompute: %v] Error saving looks payload: %v", payload.SkuID, tx.Error))
		return tx.Error
	}

	fmt.Printf("[Precompute: %v] Saved %v looks\n", payload.SkuID, response.TotalLooks)
	return nil
}

// HandleLooksPrecomputeMissingTask enqueues a precompute task for every
// product that has no stored payload yet. Paced to keep the queue shallow.
func HandleLooksPrecomputeMissingTask(ctx context.Context, t *asynq.Task, db *gorm.DB) error {
	var payload LooksPrecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	numLooks := payload.NumLooks
	if numLooks < 1 {
		numLooks = 3
	}

	var skus []string
	tx := db.Model(&models.Product{}).
		Where("sku_id NOT IN (?)", db.Model(&models.PrecomputedLook{}).Select("sku_id")).
		Order("sku_id ASC").
		Pluck("sku_id", &skus)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Precompute Sweep] Error fetching missing skus: %v", tx.Error))
		return tx.Error
	}
	if len(skus) == 0 {
		fmt.Printf("[Precompute Sweep] Nothing to do\n")
		return nil
	}
	fmt.Printf("[Precompute Sweep] Found %v anchors without looks\n", len(skus))

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")})
	if asynqClient == nil {
		err := fmt.Errorf("failed to create asynq client")
		sentry.CaptureException(err)
		return err
	}
	defer asynqClient.Close()

	for i, sku := range skus {
		task, err := NewLooksPrecomputeTask(sku, numLooks)
		if err != nil {
			sentry.CaptureException(fmt.Errorf("[Precompute Sweep] Error creating task for %v: %v", sku, err))
			continue
		}
		_, err = asynqClient.Enqueue(task, asynq.MaxRetry(3),
			asynq.ProcessIn(time.Duration(i)*time.Second), asynq.Queue("generate"))
		if err != nil {
			sentry.CaptureException(fmt.Errorf("[Precompute Sweep] Error enqueuing task for %v: %v", sku, err))
			continue
		}
	}
	return nil
}
