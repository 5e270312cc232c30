package domain

// Artist is a performer albums are attributed to.
// The name is treated as a natural key.
type Artist struct {
	ID   int64  `json:"id" db:"artist_id"`
	Name string `json:"name" db:"name"`
}
