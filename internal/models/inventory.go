package models

// Room type labels as shown on the dashboard.
const (
	RoomTypeDouble = "Double"
	RoomTypeTriple = "Triple"
	RoomTypeFour   = "Four"
)

// RoomInventory is the fixed physical room count per type. It is static
// configuration, never persisted and never mutated at runtime.
type RoomInventory struct {
	Double int `yaml:"double" json:"double"`
	Triple int `yaml:"triple" json:"triple"`
	Four   int `yaml:"four" json:"four"`
}

// DefaultInventory matches the hotel's current floor plan.
func DefaultInventory() RoomInventory {
	return RoomInventory{Double: 33, Triple: 8, Four: 3}
}

func (inv RoomInventory) Total() int {
	return inv.Double + inv.Triple + inv.Four
}

// RoomAvailability is one row of the dashboard availability table.
type RoomAvailability struct {
	RoomType  string `json:"room_type"`
	Total     int    `json:"total"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

// DailyReport is the occupancy summary for one calendar date.
type DailyReport struct {
	Date          string             `json:"date"`
	TotalBookings int                `json:"total_bookings"`
	OccupancyRate float64            `json:"occupancy_rate"`
	Rooms         []RoomAvailability `json:"rooms"`
}
