package models

type MatchJDRequest struct {
	ResumeContent  string `json:"resumeContent" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

type ImproveRequest struct {
	ResumeContent string   `json:"resumeContent" validate:"required"`
	Suggestions   []string `json:"suggestions"`
}

type InterviewQuestionsRequest struct {
	ResumeContent  string `json:"resumeContent" validate:"required"`
	JobDescription string `json:"jobDescription"`
}

type CoverLetterRequest struct {
	ResumeContent  string `json:"resumeContent"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

// UploadedResume is the in-memory form of the multipart upload.
type UploadedResume struct {
	FileName string
	MimeType string
	Data     []byte
}

type ErrorResponse struct {
	Error string `json:"error"`
}
