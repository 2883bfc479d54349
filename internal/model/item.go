package model

import "time"

// ItemCondition is maintained by maintenance records, never by the scheduling engine.
type ItemCondition string

const (
	ConditionGood             ItemCondition = "GOOD"
	ConditionNeedsMaintenance ItemCondition = "NEEDS_MAINTENANCE"
	ConditionBroken           ItemCondition = "BROKEN"
)

// Item is a physical asset definition. Units of it are kept at storages.
type Item struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string        `gorm:"size:200;not null" json:"name"`
	Type         string        `gorm:"size:64;not null" json:"type"`
	Condition    ItemCondition `gorm:"size:32;not null;default:'GOOD'" json:"condition"`
	SerialNumber *string       `gorm:"size:120;uniqueIndex" json:"serialNumber,omitempty"`
	Description  string        `gorm:"size:1024" json:"description,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
