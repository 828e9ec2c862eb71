package server

// NavigateRequest reports a completed page navigation.
type NavigateRequest struct {
	URL string `json:"url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

// NavigateResponse names the video the page is now on.
type NavigateResponse struct {
	VideoID string `json:"video_id" example:"dQw4w9WgXcQ"`
}

// RelayRequest mirrors relay.Message for the API docs.
type RelayRequest struct {
	ID      string  `json:"id,omitempty" example:"7f0c"`
	Method  string  `json:"method" example:"getCommentData"`
	VideoID *string `json:"video_id,omitempty" example:"dQw4w9WgXcQ"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	VideoID string `json:"video_id,omitempty" example:"dQw4w9WgXcQ"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not a video page"`
	Kind  string `json:"kind,omitempty" example:"not_a_video_page"`
}
