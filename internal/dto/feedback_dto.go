package dto

import "time"

type SubmitFeedbackRequest struct {
	Category string `json:"category" validate:"required,oneof=bug idea content other"`
	Message  string `json:"message" validate:"required,max=2000"`
	Contact  string `json:"contact" validate:"omitempty,email"`
}

type SubmitFeedbackResponse struct {
	Id string `json:"id"`
}

type FeedbackEntry struct {
	Id        string    `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
