package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movie is a film that can be scheduled in shows and rated by
// customers.  Rating is derived: it always equals the mean of the
// movie's votes rounded to one decimal place, or zero when nobody has
// voted.  Only the rating maintainer writes it.
//
// Fields:
//  ID         – primary key identifier.
//  Title      – display title.
//  Rating     – derived average rating in [0, 5] with one fractional digit.
//  CreatedAt  – creation timestamp.
//  ModifiedAt – last modification (nil if never modified).
type Movie struct {
	ID         uint64          // movies.id
	Title      string          // movies.title
	Rating     decimal.Decimal // movies.rating
	CreatedAt  time.Time       // movies.created_at
	ModifiedAt *time.Time      // movies.modified_at (nullable)
}
