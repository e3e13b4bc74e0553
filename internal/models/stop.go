package models

// Stop is a resident's pickup request for one drive
type Stop struct {
	ID         string `json:"id" db:"id"`
	DriveID    string `json:"driveId" db:"drive_id"`
	ResidentID string `json:"residentId" db:"resident_id"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
}
