// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"game-competition-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityRecord matches the JSON response from the identity service.
type IdentityRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetIdentityChangesResponse is the top-level structure of the identity
// service response.
type GetIdentityChangesResponse struct {
	Identities []IdentityRecord `json:"identities"`
}

// ProfileSyncWorker polls the identity service and seeds ledger profiles
// for identities this service has not seen yet, so players provisioned
// upstream can register without an explicit admin create call.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/identities"
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, identityServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      identityServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (identity-service → player_profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastSync := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Println("Profile Sync Worker stopped")
			return
		case <-ticker.C:
			since := lastSync
			lastSync = time.Now()
			if err := w.syncBatch(ctx, since); err != nil {
				log.Printf("⚠️ Profile sync failed: %v", err)
			}
		}
	}
}

func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	endpoint, err := url.JoinPath(w.baseURL, w.endpointPath)
	if err != nil {
		return fmt.Errorf("building identity service URL: %w", err)
	}
	if !since.IsZero() {
		endpoint += "?updated_since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building identity service request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("identity service returned %d: %s", resp.StatusCode, string(body))
	}

	var changes GetIdentityChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return fmt.Errorf("decoding identity service response: %w", err)
	}
	if len(changes.Identities) == 0 {
		return nil
	}

	synced := 0
	for _, identity := range changes.Identities {
		profile := models.PlayerProfile{
			ID:     identity.ID,
			Status: models.ProfileCreated,
		}
		// Insert-only: existing profiles are owned by this service and
		// must not be overwritten by the mirror.
		res := w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile)
		if res.Error != nil {
			log.Printf("⚠️ Failed to seed profile %s: %v", identity.ID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			synced++
		}
	}
	if synced > 0 {
		log.Printf("✅ Profile sync seeded %d new profiles", synced)
	}
	return nil
}
