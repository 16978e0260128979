package model

// Hall represents an individual screening hall within a cinema.
// Every hall belongs to exactly one cinema.
//
// Fields:
//  ID       – primary key identifier.
//  CinemaID – containing cinema.
//  Name     – hall name, unique per cinema.
type Hall struct {
	ID       uint64 // cinema_halls.id
	CinemaID uint64 // cinema_halls.cinema_id
	Name     string // cinema_halls.name
}
