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

package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pilosa/tripclean"
	"github.com/pilosa/tripclean/geo"
	"github.com/pkg/errors"
)

// state is what the checks know about the record being processed.
type state struct {
	raw   tripclean.RawRecord
	row   uint64
	store tripclean.TripStore
	tx    tripclean.TripTx
	trip  tripclean.Trip

	// detail explains a rejection in the debug log.
	detail error
}

// check inspects (and possibly fills in) the state. It returns a non-empty
// Reason to reject the record, or an error to abort the run.
type check func(st *state) (tripclean.Reason, error)

// checks run in order; the first one to reject a record wins.
var checks = []check{
	checkFieldCount,
	checkDuplicate,
	coerce,
	checkPassengerCount,
	checkDuration,
}

func checkFieldCount(st *state) (tripclean.Reason, error) {
	if len(st.raw) != tripclean.NumFields {
		st.detail = errors.Errorf("got %d fields, want %d", len(st.raw), tripclean.NumFields)
		return tripclean.ReasonWrongFieldCount, nil
	}
	return tripclean.ReasonNone, nil
}

// checkDuplicate opens the record's transaction, which stays open until
// the trip is inserted or the record is rejected.
func checkDuplicate(st *state) (tripclean.Reason, error) {
	tx, err := st.store.Begin()
	if err != nil {
		return tripclean.ReasonNone, errors.Wrap(err, "beginning transaction")
	}
	st.tx = tx
	exists, err := tx.Exists(st.raw[tripclean.TripID])
	if err != nil {
		return tripclean.ReasonNone, errors.Wrap(err, "checking for duplicate")
	}
	if exists {
		return tripclean.ReasonDuplicate, nil
	}
	return tripclean.ReasonNone, nil
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// coerce parses every typed field. All fields are attempted so that the
// debug log lists every problem with the record, not just the first.
func coerce(st *state) (tripclean.Reason, error) {
	raw := st.raw
	t := &st.trip
	errs := make(errorList, 0)

	parseInt := func(field int, name string, dst *int) {
		txt, err := numberText(raw[field])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "parsing %s", name))
			return
		}
		v, err := strconv.Atoi(txt)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "parsing %s", name))
			return
		}
		*dst = v
	}
	parseFloat := func(field int, name string, dst *float64) {
		txt, err := numberText(raw[field])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "parsing %s", name))
			return
		}
		v, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "parsing %s", name))
			return
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, errors.Errorf("parsing %s: %v is not a coordinate", name, v))
			return
		}
		*dst = v
	}
	parseTime := func(field int, name string, dst *time.Time) {
		v, err := time.Parse(tripclean.TimeLayout, raw[field])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "parsing %s", name))
			return
		}
		*dst = v
	}

	t.TripID = raw[tripclean.TripID]
	t.StoreAndFwdFlag = raw[tripclean.StoreAndFwdFlag]
	parseInt(tripclean.VendorID, "vendor_id", &t.VendorID)
	parseTime(tripclean.PickupDatetime, "pickup_datetime", &t.PickupDatetime)
	parseTime(tripclean.DropoffDatetime, "dropoff_datetime", &t.DropoffDatetime)
	parseInt(tripclean.PassengerCount, "passenger_count", &t.PassengerCount)
	parseFloat(tripclean.PickupLongitude, "pickup_longitude", &t.PickupLongitude)
	parseFloat(tripclean.PickupLatitude, "pickup_latitude", &t.PickupLatitude)
	parseFloat(tripclean.DropoffLongitude, "dropoff_longitude", &t.DropoffLongitude)
	parseFloat(tripclean.DropoffLatitude, "dropoff_latitude", &t.DropoffLatitude)
	parseInt(tripclean.TripDuration, "trip_duration", &t.TripDuration)

	if len(errs) > 0 {
		st.detail = errs
		return tripclean.ReasonInvalidData, nil
	}
	return tripclean.ReasonNone, nil
}

// numberText prepares a numeric field for strconv. Surrounding space is
// ignored, single underscores between digits are dropped ("1_000" is
// 1000), and hexadecimal forms such as "0x1p-2", which ParseFloat would
// otherwise accept, are refused.
func numberText(s string) (string, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return "", errors.Errorf("hexadecimal %q not accepted", s)
	}
	if !strings.Contains(s, "_") {
		return s, nil
	}
	isDigit := func(i int) bool { return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9' }
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && !(isDigit(i-1) && isDigit(i+1)) {
			return "", errors.Errorf("misplaced underscore in %q", s)
		}
	}
	return strings.Replace(s, "_", "", -1), nil
}

func checkPassengerCount(st *state) (tripclean.Reason, error) {
	if st.trip.PassengerCount < 1 {
		st.detail = errors.Errorf("passenger_count %d < 1", st.trip.PassengerCount)
		return tripclean.ReasonAnomalousData, nil
	}
	return tripclean.ReasonNone, nil
}

// checkDuration rejects trips longer than MaxTripDuration. It also rejects
// a zero or negative trip_duration, which the length limit alone would let
// through: zero gives no defined speed and a negative one a negative speed.
func checkDuration(st *state) (tripclean.Reason, error) {
	d := st.trip.TripDuration
	if d > tripclean.MaxTripDuration {
		st.detail = errors.Errorf("trip_duration %d > %d", d, tripclean.MaxTripDuration)
		return tripclean.ReasonAnomalousData, nil
	}
	if d <= 0 {
		st.detail = errors.Errorf("trip_duration %d <= 0", d)
		return tripclean.ReasonAnomalousData, nil
	}
	return tripclean.ReasonNone, nil
}

// derive fills in the computed fields of a fully validated trip.
func derive(t *tripclean.Trip) {
	t.PickupHour = t.PickupDatetime.Hour()
	t.DayOfWeek = tripclean.DayName(tripclean.ISOWeekday(t.PickupDatetime))
	t.Distance = geo.Haversine(t.PickupLatitude, t.PickupLongitude, t.DropoffLatitude, t.DropoffLongitude)
	t.TripSpeed = t.Distance / (float64(t.TripDuration) / 3600)
}
