package rest

// EnqueueCrawlRequest - запрос на постановку города в очередь обхода.
type EnqueueCrawlRequest struct {
	InseeCode string `json:"insee_code"`
	StartURL  string `json:"start_url,omitempty"`
}

// EnqueueCrawlResponse возвращает идентификатор поставленной задачи.
type EnqueueCrawlResponse struct {
	TaskID    string `json:"task_id"`
	InseeCode string `json:"insee_code"`
}

// RegisterCityRequest - запрос на регистрацию коммун почтового индекса.
type RegisterCityRequest struct {
	PostalCode string `json:"postal_code"`
}

// RegisteredCityResponse - одна зарегистрированная коммуна с ее поисковым URL.
type RegisteredCityResponse struct {
	InseeCode string `json:"insee_code"`
	URL       string `json:"url"`
}

// RegisterCityResponse - список зарегистрированных коммун.
type RegisterCityResponse struct {
	Cities []RegisteredCityResponse `json:"cities"`
}
