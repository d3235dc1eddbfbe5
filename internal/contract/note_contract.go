package contract

// NoteRequest is shared by create and update; IsFavorite is a pointer so
// an omitted flag can be told apart from an explicit false.
type NoteRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"max=1000000"`
	IsFavorite *bool  `json:"isFavorite"`
}

type NoteResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	IsFavorite bool   `json:"isFavorite"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	UserID     int64  `json:"userId"`
	UserEmail  string `json:"userEmail"`
}

type StatsResponse struct {
	UserEmail     string `json:"userEmail"`
	TotalNotes    int64  `json:"totalNotes"`
	FavoriteNotes int64  `json:"favoriteNotes"`
}

type SendEmailResponse struct {
	Message   string `json:"message"`
	NoteID    int64  `json:"noteId"`
	NoteTitle string `json:"noteTitle"`
	SentTo    string `json:"sentTo"`
}
