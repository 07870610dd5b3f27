package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/foundersbridge/foundersbridge/internal/pkg/docstore"
	"github.com/foundersbridge/foundersbridge/internal/pkg/engagement"
)

var (
	depsMu            sync.RWMutex
	engagementMachine *engagement.Machine
	docstoreClient    *docstore.Client
)

// SetEngagementMachine registers the machine used by expiry sweep jobs.
// Called once during application startup.
func SetEngagementMachine(m *engagement.Machine) {
	depsMu.Lock()
	defer depsMu.Unlock()
	engagementMachine = m
}

// SetDocstoreClient registers the document storage client used by cleanup
// jobs. Optional; cleanup jobs fail and retry while it is unset.
func SetDocstoreClient(c *docstore.Client) {
	depsMu.Lock()
	defer depsMu.Unlock()
	docstoreClient = c
}

func getEngagementMachine() *engagement.Machine {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return engagementMachine
}

func getDocstoreClient() *docstore.Client {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return docstoreClient
}

// processEngagementExpiryJob expires open requests past the expiry window
func (q *Queue) processEngagementExpiryJob(ctx context.Context, job *Job) error {
	machine := getEngagementMachine()
	if machine == nil {
		return fmt.Errorf("engagement machine not registered")
	}

	payload, err := EngagementExpiryJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid expiry payload: %w", err)
	}

	expired, err := machine.ExpireOpenRequests(ctx, payload.BatchSize)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}
	if expired > 0 {
		log.Infof("[JobQueue] Expired %d stale engagement requests", expired)
	}
	return nil
}

// processDocumentCleanupJob deletes a replaced document object from storage
func (q *Queue) processDocumentCleanupJob(ctx context.Context, job *Job) error {
	client := getDocstoreClient()
	if client == nil {
		return fmt.Errorf("document storage client not registered")
	}

	payload, err := DocumentCleanupJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid cleanup payload: %w", err)
	}
	if payload.ObjectKey == "" {
		return fmt.Errorf("cleanup payload missing object key")
	}

	if err := client.DeleteDocument(ctx, payload.ObjectKey); err != nil {
		return fmt.Errorf("delete document object: %w", err)
	}
	log.Infof("[JobQueue] Removed replaced document %s (org %d, kind %s)", payload.ObjectKey, payload.OrgID, payload.Kind)
	return nil
}
