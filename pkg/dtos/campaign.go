package dtos

type CampaignTargetDTO struct {
	PhoneNumber  string `json:"phone_number" binding:"required"`
	BusinessName string `json:"business_name"`
	Segment      string `json:"segment"`
	City         string `json:"city"`
}

type DispatchCampaignDTO struct {
	Message string              `json:"message" binding:"required"`
	Targets []CampaignTargetDTO `json:"targets" binding:"required,min=1,dive"`
}

type CampaignFailureDTO struct {
	PhoneNumber string `json:"phone_number"`
	Error       string `json:"error"`
}

type CampaignReportDTO struct {
	Attempted          int                  `json:"attempted"`
	Succeeded          int                  `json:"succeeded"`
	Failed             int                  `json:"failed"`
	SkippedAsDuplicate int                  `json:"skipped_as_duplicate"`
	Failures           []CampaignFailureDTO `json:"failures"`
	Interrupted        bool                 `json:"interrupted,omitempty"`
}
