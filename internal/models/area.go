package models

type Area struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	CreatedAt int64  `json:"-" db:"created_at"`
}

// Street always belongs to exactly one Area
type Street struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	AreaID    string `json:"areaId" db:"area_id"`
	CreatedAt int64  `json:"-" db:"created_at"`
}
