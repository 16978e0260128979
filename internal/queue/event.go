// Package queue defines message payloads exchanged over the message broker
// and the consumer that acts on them.
package queue

// RatingRecomputeQueue is the durable queue carrying rating repair
// requests.
const RatingRecomputeQueue = "rating.recompute"

// RatingRecomputeEvent is published when a movie's rating could not be
// re-derived after a vote mutation.  The vote itself is already stored;
// the consumer only needs the movie id to try again.
type RatingRecomputeEvent struct {
	MovieID     uint64 `json:"movie_id"`
	Reason      string `json:"reason"`
	RequestedAt string `json:"requested_at"`
}
