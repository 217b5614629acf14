package enums

// EventKind tags a domain event pushed through the update broadcaster.
type EventKind string

const (
	EventKindTaskCompleted        EventKind = "task_completed"
	EventKindMetricsChanged       EventKind = "metrics_changed"
	EventKindInventoryUpdated     EventKind = "inventory_updated"
	EventKindComplianceIssueAdded EventKind = "compliance_issue_added"
	EventKindPortfolioUpdated     EventKind = "portfolio_updated"
	EventKindInsightsGenerated    EventKind = "insights_generated"
)
