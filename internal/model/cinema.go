package model

// Cinema represents a movie theatre venue.  A cinema owns zero or
// more halls; revenue is attributed to it through hall → show →
// booking.
//
// Fields:
//  ID      – primary key identifier.
//  Name    – display name of the cinema.
//  Address – street address shown next to the name in reports.
type Cinema struct {
	ID      uint64 // cinemas.id
	Name    string // cinemas.name
	Address string // cinemas.address
}
