package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar-date format used across the API and the store.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrDateOrdering = errors.New("check-out date must be after check-in date")
)

// RoomCounts is the per-type room breakdown of one booking.
// Counts below zero are treated as zero everywhere.
type RoomCounts struct {
	Double int `json:"double" yaml:"double"`
	Triple int `json:"triple" yaml:"triple"`
	Four   int `json:"four" yaml:"four"`
}

func (r RoomCounts) Total() int {
	return clampZero(r.Double) + clampZero(r.Triple) + clampZero(r.Four)
}

// Normalized returns a copy with negative counts floored at zero.
func (r RoomCounts) Normalized() RoomCounts {
	return RoomCounts{
		Double: clampZero(r.Double),
		Triple: clampZero(r.Triple),
		Four:   clampZero(r.Four),
	}
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// UnmarshalJSON accepts whatever older records hold in the room fields:
// numbers, numeric strings, or garbage. Anything that is not a number
// counts as zero rather than failing the whole record.
func (r *RoomCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = RoomCounts{}
		return nil
	}
	r.Double = coerceCount(raw["double"])
	r.Triple = coerceCount(raw["triple"])
	r.Four = coerceCount(raw["four"])
	return nil
}

func coerceCount(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}

// Booking is one guest's reservation record. The (Name, CheckInDate) pair is
// the lookup key for the modify and delete flows; it is not unique.
type Booking struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	BookingType   string     `json:"bookingType"`
	Mobile        string     `json:"mobile"`
	CheckInDate   string     `json:"checkInDate"`
	CheckOutDate  string     `json:"checkOutDate"`
	Rooms         RoomCounts `json:"rooms"`
	TotalAmount   float64    `json:"totalAmount"`
	AdvanceAmount float64    `json:"advanceAmount"`
	BalanceAmount float64    `json:"balanceAmount"`
	Screenshot    string     `json:"screenshot,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
}

// Validate checks the date invariant. Name, mobile and booking type are
// free text and intentionally unconstrained.
func (b *Booking) Validate() error {
	checkIn, err := time.Parse(DateLayout, b.CheckInDate)
	if err != nil {
		return fmt.Errorf("check-in %q: %w", b.CheckInDate, ErrInvalidDate)
	}
	checkOut, err := time.Parse(DateLayout, b.CheckOutDate)
	if err != nil {
		return fmt.Errorf("check-out %q: %w", b.CheckOutDate, ErrInvalidDate)
	}
	if !checkOut.After(checkIn) {
		return ErrDateOrdering
	}
	return nil
}

// RecalcBalance derives the balance from the two amount inputs. The balance
// is never edited directly; every edit path goes through here.
func (b *Booking) RecalcBalance() {
	b.BalanceAmount = b.TotalAmount - b.AdvanceAmount
}

// Normalize floors room counts at zero and recomputes the derived balance.
func (b *Booking) Normalize() {
	b.Rooms = b.Rooms.Normalized()
	b.RecalcBalance()
}
