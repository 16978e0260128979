package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Show represents a scheduled screening of a movie in a particular
// hall.  ShowDate is the calendar day of the screening; it may be
// unset for shows that were imported without a schedule, in which
// case the show never counts as "today" and never anchors a movie's
// opening window.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being screened.
//  HallID      – hall where the show is taking place.
//  ShowDate    – calendar date of the screening (nil if unscheduled).
//  StartTime   – when the show begins.
//  EndTime     – when the show ends.
//  TicketPrice – price of a single seat.
type Show struct {
	ID          uint64          // shows.id
	MovieID     uint64          // shows.movie_id
	HallID      uint64          // shows.hall_id
	ShowDate    *time.Time      // shows.show_date (nullable DATE)
	StartTime   time.Time       // shows.start_time
	EndTime     time.Time       // shows.end_time
	TicketPrice decimal.Decimal // shows.ticket_price
}
