package model

import "time"

// Predicate reports whether a record satisfies one constraint.
type Predicate[T any] func(T) bool

// All folds predicates with logical AND.  An empty list matches
// everything, which is how a filter with no constraints behaves.
func All[T any](preds []Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// BookingFilter narrows a booking read.  Nil or empty fields mean "no
// constraint".  The creation bounds are half-open instants: callers
// that think in calendar days pass midnight of the first day and
// midnight of the day after the last one.
type BookingFilter struct {
	Statuses      []string   // bookings.status IN (...)
	CreatedFrom   *time.Time // bookings.created_at >= CreatedFrom
	CreatedBefore *time.Time // bookings.created_at <  CreatedBefore
}

// Predicates returns the filter's constraints as closures, one per
// populated field.
func (f BookingFilter) Predicates() []Predicate[Booking] {
	var preds []Predicate[Booking]
	if len(f.Statuses) > 0 {
		allowed := make(map[string]bool, len(f.Statuses))
		for _, s := range f.Statuses {
			allowed[s] = true
		}
		preds = append(preds, func(b Booking) bool { return allowed[b.Status] })
	}
	if f.CreatedFrom != nil {
		from := *f.CreatedFrom
		preds = append(preds, func(b Booking) bool { return !b.CreatedAt.Before(from) })
	}
	if f.CreatedBefore != nil {
		before := *f.CreatedBefore
		preds = append(preds, func(b Booking) bool { return b.CreatedAt.Before(before) })
	}
	return preds
}

// Match reports whether b satisfies every constraint of the filter.
func (f BookingFilter) Match(b Booking) bool { return All(f.Predicates())(b) }

// VoteFilter holds the optional constraints of a vote listing.  All
// bounds are inclusive.
type VoteFilter struct {
	MovieID   *uint64
	UserID    *uint64
	MinRating *int
	MaxRating *int
	From      *time.Time
	To        *time.Time
}

// Predicates returns the filter's constraints as closures, one per
// populated field.
func (f VoteFilter) Predicates() []Predicate[Vote] {
	var preds []Predicate[Vote]
	if f.MovieID != nil {
		id := *f.MovieID
		preds = append(preds, func(v Vote) bool { return v.MovieID == id })
	}
	if f.UserID != nil {
		id := *f.UserID
		preds = append(preds, func(v Vote) bool { return v.UserID == id })
	}
	if f.MinRating != nil {
		lo := *f.MinRating
		preds = append(preds, func(v Vote) bool { return v.RatingValue >= lo })
	}
	if f.MaxRating != nil {
		hi := *f.MaxRating
		preds = append(preds, func(v Vote) bool { return v.RatingValue <= hi })
	}
	if f.From != nil {
		from := *f.From
		preds = append(preds, func(v Vote) bool { return !v.VoteTime.Before(from) })
	}
	if f.To != nil {
		to := *f.To
		preds = append(preds, func(v Vote) bool { return !v.VoteTime.After(to) })
	}
	return preds
}

// Match reports whether v satisfies every constraint of the filter.
func (f VoteFilter) Match(v Vote) bool { return All(f.Predicates())(v) }
