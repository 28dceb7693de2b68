package remote

// DetectRequest for POST /detect-labels
type DetectRequest struct {
	Img           string  `json:"img"` // base64 encoded image
	MaxLabels     int     `json:"max_labels"`
	MinConfidence float64 `json:"min_confidence"`
}

// DetectResponse from POST /detect-labels
type DetectResponse struct {
	Labels []Label `json:"labels"`
}

type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-100
}
