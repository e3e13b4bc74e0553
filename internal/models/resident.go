package models

import "github.com/lib/pq"

// NotificationType tags every inbox entry
type NotificationType string

const (
	NotificationDriveScheduled NotificationType = "drive_scheduled"
	NotificationMenuUpdated    NotificationType = "menu_updated"
	NotificationETAUpdated     NotificationType = "eta_updated"
	NotificationArrivalAlert   NotificationType = "arrival_alert"
	NotificationStopRequested  NotificationType = "stop_requested"
	NotificationDriveCancelled NotificationType = "drive_cancelled"
)

// PreferenceTypes are the notification types a resident can opt out of.
// stop_requested and drive_cancelled are always delivered.
var PreferenceTypes = []NotificationType{
	NotificationDriveScheduled,
	NotificationMenuUpdated,
	NotificationETAUpdated,
	NotificationArrivalAlert,
}

// IsPreferenceType reports whether t can appear in a preference set
func IsPreferenceType(t string) bool {
	for _, p := range PreferenceTypes {
		if string(p) == t {
			return true
		}
	}
	return false
}

// DefaultPreferences returns a fresh copy of the all-enabled preference set
func DefaultPreferences() pq.StringArray {
	prefs := make(pq.StringArray, 0, len(PreferenceTypes))
	for _, p := range PreferenceTypes {
		prefs = append(prefs, string(p))
	}
	return prefs
}

type Resident struct {
	ID               string         `json:"id" db:"id"`
	Username         string         `json:"username" db:"username"`
	AreaID           string         `json:"areaId" db:"area_id"`
	StreetID         string         `json:"streetId" db:"street_id"`
	HouseNumber      int            `json:"houseNumber" db:"house_number"`
	Lat              *float64       `json:"lat,omitempty" db:"lat"`
	Lng              *float64       `json:"lng,omitempty" db:"lng"`
	Preferences      pq.StringArray `json:"notification_preferences" db:"notification_preferences"`
	Inbox            []Notification `json:"inbox" db:"-"`
	SubscribedDrives []string       `json:"subscribed_drives" db:"-"`
	CreatedAt        int64          `json:"-" db:"created_at"`
}

// Wants reports whether the resident opted in to notifications of type t
func (r *Resident) Wants(t NotificationType) bool {
	for _, p := range r.Preferences {
		if p == string(t) {
			return true
		}
	}
	return false
}

// HasCoordinates is false for residents that never recorded a position
func (r *Resident) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// LivesOn reports whether the resident's home is on the given area/street
func (r *Resident) LivesOn(areaID, streetID string) bool {
	return r.AreaID == areaID && r.StreetID == streetID
}
