package model

import "time"

// Movie is a catalog entry for a film that can be scheduled in
// showtimes.  DurationMin drives the occupied-interval math used by
// the scheduling conflict checker, so it must be positive.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the film.
//  DurationMin – runtime in minutes, excluding changeover buffer.
//  Language    – primary audio language.
//  Genre       – free-form genre label.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	DurationMin uint32    // movies.duration_min
	Language    string    // movies.language
	Genre       string    // movies.genre
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}
