package dtos

type GenerateLeadsDTO struct {
	Segment string `json:"segment" binding:"required"`
	City    string `json:"city" binding:"required"`
	Limit   int    `json:"limit" binding:"omitempty,min=1,max=200"`
}

// GeneratedLeadDTO is one business returned by the lead-generation workflow.
type GeneratedLeadDTO struct {
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Segment      string `json:"segment"`
	City         string `json:"city"`
}

type GenerateLeadsResultDTO struct {
	Received int `json:"received"`
	Created  int `json:"created"`
	Existing int `json:"existing"`
}
