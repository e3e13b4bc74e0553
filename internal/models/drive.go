package models

import "time"

// DriveStatus represents where a drive is in its lifecycle
type DriveStatus string

const (
	DriveStatusUpcoming   DriveStatus = "Upcoming"    // Scheduled, accepting stops
	DriveStatusInProgress DriveStatus = "In Progress" // Van is out on the street
	DriveStatusCompleted  DriveStatus = "Completed"   // Ended by the driver
	DriveStatusCancelled  DriveStatus = "Cancelled"   // Cancelled by the driver
)

// DriveEvent is an input to the drive state machine
type DriveEvent string

const (
	DriveEventStart  DriveEvent = "start"
	DriveEventEnd    DriveEvent = "end"
	DriveEventCancel DriveEvent = "cancel"
	DriveEventUpdate DriveEvent = "update" // Menu or ETA change
)

// Date and time layouts accepted when scheduling
const (
	DriveDateLayout = "2006-01-02"
	DriveTimeLayout = "15:04"
)

// driveTransitions is total: every status has an entry for every event.
// A missing pair in an inner map means the event is rejected in that status.
var driveTransitions = map[DriveStatus]map[DriveEvent]DriveStatus{
	DriveStatusUpcoming: {
		DriveEventStart:  DriveStatusInProgress,
		DriveEventCancel: DriveStatusCancelled,
		DriveEventUpdate: DriveStatusUpcoming,
	},
	DriveStatusInProgress: {
		DriveEventEnd:    DriveStatusCompleted,
		DriveEventCancel: DriveStatusCancelled,
		DriveEventUpdate: DriveStatusInProgress,
	},
	DriveStatusCompleted: {
		// Cancelling a completed drive is accepted; see DESIGN.md.
		DriveEventCancel: DriveStatusCancelled,
		DriveEventUpdate: DriveStatusCompleted,
	},
	DriveStatusCancelled: {
		DriveEventCancel: DriveStatusCancelled,
		DriveEventUpdate: DriveStatusCancelled,
	},
}

// DriveStatuses lists every status in lifecycle order
var DriveStatuses = []DriveStatus{
	DriveStatusUpcoming,
	DriveStatusInProgress,
	DriveStatusCompleted,
	DriveStatusCancelled,
}

// DriveEvents lists every event the state machine accepts as input
var DriveEvents = []DriveEvent{
	DriveEventStart,
	DriveEventEnd,
	DriveEventCancel,
	DriveEventUpdate,
}

// Next returns the status reached from s on e. ok is false when the event is
// rejected in s.
func (s DriveStatus) Next(e DriveEvent) (next DriveStatus, ok bool) {
	next, ok = driveTransitions[s][e]
	return next, ok
}

// Terminal reports whether no further lifecycle progress is possible
func (s DriveStatus) Terminal() bool {
	return s == DriveStatusCompleted || s == DriveStatusCancelled
}

func (s DriveStatus) Valid() bool {
	_, ok := driveTransitions[s]
	return ok
}

// Drive is a scheduled run by one driver along one street on one date
type Drive struct {
	ID          string      `json:"id" db:"id"`
	DriverID    string      `json:"driverId" db:"driver_id"`
	AreaID      string      `json:"areaId" db:"area_id"`
	StreetID    string      `json:"streetId" db:"street_id"`
	Date        string      `json:"date" db:"date"` // YYYY-MM-DD
	Time        string      `json:"time" db:"time"` // HH:MM
	Status      DriveStatus `json:"status" db:"status"`
	Menu        *string     `json:"menu" db:"menu"`
	ETA         *string     `json:"eta" db:"eta"` // HH:MM
	ScheduledAt int64       `json:"-" db:"scheduled_at"`
	CreatedAt   int64       `json:"-" db:"created_at"`
	UpdatedAt   int64       `json:"-" db:"updated_at"`
}

// ScheduledTime returns the drive's date and time in loc
func (d *Drive) ScheduledTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DriveDateLayout+" "+DriveTimeLayout, d.Date+" "+d.Time, loc)
}
