// services/changelog.go
package services

import (
	"game-competition-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// logChange appends one change notification inside the caller's transaction.
// Mutating operations emit exactly one notification per entity they touch.
func logChange(tx *gorm.DB, actorID, entityType, entityKey string, change models.ChangeType) error {
	entry := models.ChangeLog{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		EntityType: entityType,
		EntityKey:  entityKey,
		Change:     change,
	}
	return tx.Create(&entry).Error
}
