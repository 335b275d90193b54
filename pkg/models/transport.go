package models

// ImageDescriptor carries one page image to the processing service.
// ID is ephemeral and only meaningful within the collection cycle that
// produced it; Data is the full payload as a data URI.
type ImageDescriptor struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// ProcessRequest is the body of POST /process_images.
type ProcessRequest struct {
	Images []ImageDescriptor `json:"images" binding:"required"`
}

// ProcessedResult is one entry of the processing service's response.
// A nil TranslatedData means the image is a no-op for the caller.
type ProcessedResult struct {
	ID             string  `json:"id"`
	TranslatedData *string `json:"translatedData"`
}

// ErrorResponse represents an error response from the processing service.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
