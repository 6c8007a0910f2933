package domain

import "github.com/google/uuid"

// CrawlTask - задача обхода одного города, приходит из очереди или REST.
type CrawlTask struct {
	TaskID    uuid.UUID `json:"task_id"`
	InseeCode string    `json:"insee_code"`
	// StartURL может быть пустым: тогда URL берется из справочника коммун.
	StartURL string `json:"start_url,omitempty"`
}

// Статусы итогового отчета по обходу города.
const (
	CrawlStatusCompleted = "completed"
	CrawlStatusFailed    = "failed"
)

// CrawlReport - итог обхода одного города для внешнего наблюдателя.
type CrawlReport struct {
	InseeCode    string `json:"insee_code"`
	AdsProcessed int    `json:"ads_processed"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}
