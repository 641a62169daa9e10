package documents

import (
	"context"
	"errors"
	"log"

	"github.com/zeptools/orderdocs/locks/keyonlylocks"
)

// ErrRenderInProgress - the same (order, type) pair is being rendered by
// another caller right now
var ErrRenderInProgress = errors.New("documents: render already in progress")

// BatchResult - outcome for one order of a batch. Failures never abort
// the rest of the batch.
type BatchResult struct {
	OrderID string
	Doc     *Document
	Err     error
}

// RenderBatch produces one independent document per order, never a
// combined multi-order buffer.
func (c *Composer) RenderBatch(ctx context.Context, orderIDs []string, t Type) []BatchResult {
	results := make([]BatchResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		results = append(results, c.renderOne(ctx, id, t))
	}
	return results
}

func (c *Composer) renderOne(ctx context.Context, orderID string, t Type) BatchResult {
	key := string(t) + ":" + orderID
	acquired, ok := keyonlylocks.AcquireLocks(c.renderLocks, []string{key})
	if !ok {
		return BatchResult{OrderID: orderID, Err: ErrRenderInProgress}
	}
	defer keyonlylocks.ReleaseLocks(c.renderLocks, acquired)

	doc, err := c.Render(ctx, orderID, t)
	if err != nil {
		log.Printf("[ERROR] batch: order %s skipped: %v", orderID, err)
		return BatchResult{OrderID: orderID, Err: err}
	}
	return BatchResult{OrderID: orderID, Doc: doc}
}
