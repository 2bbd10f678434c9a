package campaign

import (
	"strings"

	"github.com/waassist/connector/pkg/dtos"
)

// Render fills the {business_name}, {segment} and {city} placeholders of
// template from target. Unknown placeholders are left as they are.
func Render(template string, target dtos.CampaignTargetDTO) string {
	return strings.NewReplacer(
		"{business_name}", target.BusinessName,
		"{segment}", target.Segment,
		"{city}", target.City,
	).Replace(template)
}
