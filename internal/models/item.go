package models

// Item is a catalog entry sold from the van
type Item struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Description string  `json:"description" db:"description"`
	Tags        string  `json:"tags" db:"tags"` // Comma separated, matched case-insensitively
	CreatedAt   int64   `json:"-" db:"created_at"`
	UpdatedAt   int64   `json:"-" db:"updated_at"`
}

// ItemUpdate carries a partial update; nil fields are left unchanged
type ItemUpdate struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Tags        *string  `json:"tags"`
}

// DriverStock is a driver's quantity on hand for one item
type DriverStock struct {
	ID        string `json:"id" db:"id"`
	DriverID  string `json:"driverId" db:"driver_id"`
	ItemID    string `json:"itemId" db:"item_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
	UpdatedAt int64  `json:"-" db:"updated_at"`
}
