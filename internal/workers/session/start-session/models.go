// internal/workers/session/start-session/models.go
package startsession

type Input struct {
	StudentID string `json:"studentId" validate:"required"`
	Major     string `json:"major" validate:"required"`
	Course    string `json:"course" validate:"required"`
	Degree    string `json:"degree" validate:"required"`
}

type Output struct {
	SessionID      string `json:"sessionId"`
	CourseName     string `json:"courseName"`
	WelcomeMessage string `json:"welcomeMessage"`
}
