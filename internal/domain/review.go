package domain

// AlbumReview is a single user's score and text for an album.
type AlbumReview struct {
	ID      int64   `json:"id" db:"review_id"`
	Score   float64 `json:"score" db:"score"`
	Text    string  `json:"text" db:"text"`
	AlbumID int64   `json:"album" db:"album"`
	UserID  int64   `json:"user" db:"user"`
}

// NewAlbumReview creates a review of albumID written by userID.
func NewAlbumReview(albumID, userID int64, score float64, text string) *AlbumReview {
	return &AlbumReview{
		Score:   score,
		Text:    text,
		AlbumID: albumID,
		UserID:  userID,
	}
}

// ReviewLine is one row of an album's review listing, joined with the
// reviewer's username.
type ReviewLine struct {
	Rating   float64 `json:"rating" db:"rating"`
	Text     string  `json:"text" db:"text"`
	Username string  `json:"username" db:"username"`
}

// AlbumRating is the aggregate view of an album: the mean score and every
// review. AverageRating is nil when the album has no reviews.
type AlbumRating struct {
	Album         *Album        `json:"album"`
	AverageRating *float64      `json:"average_rating"`
	Reviews       []*ReviewLine `json:"reviews"`
}
