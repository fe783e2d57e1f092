package models

import "time"

// Size is a shelf size class. Name is the numeric size class used as a cost
// multiplier when pricing storage orders.
type Size struct {
	ID   uint `json:"size_id" gorm:"column:size_id;primaryKey;autoIncrement"`
	Name int  `json:"size_name" gorm:"column:size_name"`
}

func (Size) TableName() string { return "sizes" }

// Shelf is a single rentable warehouse shelf.
type Shelf struct {
	ID     uint `json:"shelf_id" gorm:"column:shelf_id;primaryKey;autoIncrement"`
	Active bool `json:"active" gorm:"column:active;not null"`

	SizeID uint `json:"size_id" gorm:"column:size_id;not null"`
	Size   Size `json:"size" gorm:"foreignKey:SizeID;references:ID"`
}

func (Shelf) TableName() string { return "warehouse" }

// StorageOrder is a rental of one shelf by one user for a date range.
type StorageOrder struct {
	ID        uint      `json:"storage_order_id" gorm:"column:storage_order_id;primaryKey;autoIncrement"`
	StartDate time.Time `json:"start_date" gorm:"column:start_date;not null"`
	StopDate  time.Time `json:"stop_date" gorm:"column:stop_date;not null"`
	Cost      int       `json:"storage_order_cost" gorm:"column:storage_order_cost;not null"`
	Created   time.Time `json:"created" gorm:"column:created"`

	UserID  uint  `json:"user_id" gorm:"column:user_id;not null"`
	ShelfID uint  `json:"shelf_id" gorm:"column:shelf_id;not null"`
	Shelf   Shelf `json:"-" gorm:"foreignKey:ShelfID;references:ID"`
}

func (StorageOrder) TableName() string { return "storage_orders" }
