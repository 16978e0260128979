package model

import "time"

// Rating bounds accepted for Vote.RatingValue.
const (
	MinRating = 1
	MaxRating = 5
)

// Vote is a user's star rating of a movie.  There is at most one vote
// per (UserID, MovieID); voting again overwrites the value and the
// vote time.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – voter.
//  MovieID     – rated movie.
//  RatingValue – integer between MinRating and MaxRating.
//  VoteTime    – when the vote was last written (UTC).
type Vote struct {
	ID          uint64    // votes.id
	UserID      uint64    // votes.user_id
	MovieID     uint64    // votes.movie_id
	RatingValue int       // votes.rating_value
	VoteTime    time.Time // votes.vote_time
}
