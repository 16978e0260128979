package repository

import "database/sql"

// Store bundles the repositories behind one value so it can serve as
// both the analytics engine's and the rating maintainer's store.
type Store struct {
	*BookingRepo
	*ShowRepo
	*HallRepo
	*CinemaRepo
	*SeatRepo
	*MovieRepo
	*UserRepo
	*VoteRepo
}

// NewStore builds every repository over the same connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{
		BookingRepo: NewBookingRepo(db),
		ShowRepo:    NewShowRepo(db),
		HallRepo:    NewHallRepo(db),
		CinemaRepo:  NewCinemaRepo(db),
		SeatRepo:    NewSeatRepo(db),
		MovieRepo:   NewMovieRepo(db),
		UserRepo:    NewUserRepo(db),
		VoteRepo:    NewVoteRepo(db),
	}
}
