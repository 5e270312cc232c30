package domain

// Album is a release by an artist.
type Album struct {
	// ID is the unique identifier for the album (auto-generated).
	ID int64 `json:"id" db:"album_id"`

	// Name is the album title. Lookups by name use exact matching.
	Name string `json:"album_name" db:"album_name"`

	// NumOfSongs is the track count.
	NumOfSongs int `json:"num_of_songs" db:"num_of_songs"`

	// ArtistID references Artist.ID.
	ArtistID int64 `json:"artist" db:"artist"`

	// ArtistName is populated by listing queries that join artists.
	ArtistName string `json:"artist_name,omitempty" db:"artist_name"`
}

// NewAlbum creates an album attributed to the given artist.
func NewAlbum(name string, numOfSongs int, artistID int64) *Album {
	return &Album{
		Name:       name,
		NumOfSongs: numOfSongs,
		ArtistID:   artistID,
	}
}
