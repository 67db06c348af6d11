package models

// Usage endpoint tags recorded in the usage log.
const (
	EndpointStart  = "/automation/start"
	EndpointStop   = "/automation/stop"
	EndpointExport = "/automation/export"
	EndpointScrape = "automation.scrape"
)
