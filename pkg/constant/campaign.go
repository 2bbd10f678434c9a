package constant

const (
	CAMPAIGN_DISPATCHED  = "Campaign dispatched"
	CAMPAIGN_INTERRUPTED = "Campaign interrupted before all targets were processed"
	LEDGER_RETRIEVED     = "Ledger retrieved successfully"

	LEADS_RETRIEVED        = "Leads retrieved successfully"
	LEADS_GENERATED        = "Leads generated successfully"
	LEAD_WEBHOOK_MISSING   = "lead generation webhook is not configured"
	LEAD_GENERATION_FAILED = "lead generation failed: %s"
)
