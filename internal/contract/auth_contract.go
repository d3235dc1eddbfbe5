package contract

type VerifyTokenResponse struct {
	Valid  bool   `json:"valid"`
	UID    string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type CurrentUserResponse struct {
	ID        int64  `json:"id"`
	SubjectID string `json:"subjectId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
