// models/game_definition.go
package models

import (
	"time"
)

// GameDefinition is an admin-registered game. AdminExempt is an opaque
// per-game policy flag: competitions for exempt games may be funded by
// admins in non-ticket currencies without a balance check.
type GameDefinition struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	AdminExempt bool       `json:"admin_exempt" gorm:"not null;default:false"`
	Status      GameStatus `json:"status" gorm:"type:varchar(16);not null;default:'created'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
