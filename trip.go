// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package tripclean

import (
	"strings"
	"time"
)

// Positions of the fields in a raw trip record.
const (
	TripID = iota
	VendorID
	PickupDatetime
	DropoffDatetime
	PassengerCount
	PickupLongitude
	PickupLatitude
	DropoffLongitude
	DropoffLatitude
	StoreAndFwdFlag
	TripDuration

	// NumFields is the number of fields a raw record must have.
	NumFields
)

// TimeLayout is the only accepted encoding of pickup and dropoff times, and
// the encoding used when they are persisted.
const TimeLayout = "2006-01-02 15:04:05"

// MaxTripDuration is the longest trip, in seconds, which is not considered
// anomalous.
const MaxTripDuration = 43200

// RawRecord is one row of input, split into fields but otherwise untouched.
type RawRecord []string

// Join renders the record as a single pipe delimited string for the
// exclusion log.
func (r RawRecord) Join() string {
	return strings.Join(r, "|")
}

// Trip is a validated trip with its derived fields.
type Trip struct {
	// ID is the surrogate key assigned by the store on insert.
	ID int64 `json:"id"`

	TripID           string    `json:"trip_id"`
	VendorID         int       `json:"vendor_id"`
	PickupDatetime   time.Time `json:"pickup_datetime"`
	DropoffDatetime  time.Time `json:"dropoff_datetime"`
	PassengerCount   int       `json:"passenger_count"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	PickupLatitude   float64   `json:"pickup_latitude"`
	DropoffLongitude float64   `json:"dropoff_longitude"`
	DropoffLatitude  float64   `json:"dropoff_latitude"`
	StoreAndFwdFlag  string    `json:"store_and_fwd_flag"`
	TripDuration     int       `json:"trip_duration"`

	TripSpeed  float64 `json:"trip_speed"` // km/h
	Distance   float64 `json:"distance"`   // km
	PickupHour int     `json:"pickup_hour"`
	DayOfWeek  string  `json:"day_of_week"`
}

var weekdays = [...]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// DayName returns the English name of the day with the given ISO weekday
// number (1 is Monday, 7 is Sunday). It returns "" for anything else.
func DayName(isoWeekday int) string {
	if isoWeekday < 1 || isoWeekday > 7 {
		return ""
	}
	return weekdays[isoWeekday]
}

// ISOWeekday converts t's weekday to ISO numbering.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
