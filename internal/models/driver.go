package models

// DriverStatus is the availability of a driver
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "Offline"
	DriverStatusAvailable DriverStatus = "Available"
	DriverStatusBusy      DriverStatus = "Busy" // Set only while a drive is In Progress
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusOffline, DriverStatusAvailable, DriverStatusBusy:
		return true
	}
	return false
}

// Driver is a user account that runs drives. LastLat/LastLng come from
// driver_current_location and are nil until the first location report.
type Driver struct {
	ID        string       `json:"id" db:"id"`
	Username  string       `json:"username" db:"username"`
	Status    DriverStatus `json:"status" db:"status"`
	AreaID    string       `json:"areaId" db:"area_id"`
	StreetID  *string      `json:"streetId" db:"street_id"`
	LastLat   *float64     `json:"last_lat" db:"last_lat"`
	LastLng   *float64     `json:"last_lng" db:"last_lng"`
	CreatedAt int64        `json:"created_at" db:"created_at"`
}

// HasLocation reports whether the driver has ever reported a position
func (d *Driver) HasLocation() bool {
	return d.LastLat != nil && d.LastLng != nil
}
