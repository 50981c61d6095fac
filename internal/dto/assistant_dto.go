package dto

// ErrorAnswer is returned when no answer could be produced at all.
const ErrorAnswer = "Sorry, I hit an error. Please try again."

// AskRequest is the decoded multipart form of POST /upload_and_query.
// Image is nil when no file was attached.
type AskRequest struct {
	Query     string
	Image     []byte
	ImageName string
}

func (r *AskRequest) HasUpload() bool {
	return r.Image != nil
}

// AskResponse carries the same answer under four keys for client
// compatibility.
type AskResponse struct {
	Ok       bool   `json:"ok"`
	Answer   string `json:"answer"`
	Message  string `json:"message"`
	Response string `json:"response"`
	Text     string `json:"text"`
}

func NewAskResponse(answer string) *AskResponse {
	return &AskResponse{
		Ok:       true,
		Answer:   answer,
		Message:  answer,
		Response: answer,
		Text:     answer,
	}
}
