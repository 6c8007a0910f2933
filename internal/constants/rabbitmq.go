package constants

// Имена сущностей RabbitMQ, общие для всех экземпляров сервиса.
const (
	CrawlTasksExchange   = "crawl_tasks_exchange"
	CrawlTasksQueue      = "leboncoin_crawl_tasks_queue"
	CrawlTasksRoutingKey = "crawl.leboncoin"

	CrawlReportsExchange   = "crawl_reports_exchange"
	CrawlReportsRoutingKey = "crawl.report"
)
