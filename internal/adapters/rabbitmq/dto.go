package rabbitmq

import "github.com/google/uuid"

// CrawlTaskDTO - сообщение очереди задач обхода.
type CrawlTaskDTO struct {
	TaskID    uuid.UUID `json:"task_id"`
	InseeCode string    `json:"insee_code"`
	StartURL  string    `json:"start_url,omitempty"`
}

// CrawlReportDTO - сообщение очереди отчетов о выполнении обхода.
type CrawlReportDTO struct {
	TaskID       uuid.UUID `json:"task_id"`
	InseeCode    string    `json:"insee_code"`
	AdsProcessed int       `json:"ads_processed"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}
