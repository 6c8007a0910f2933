package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
	usecases_port "leboncoin-parser-service/internal/core/port/usecases"

	"github.com/google/uuid"
)

// CrawlHandler принимает внешние команды: поставить город в очередь обхода
// и зарегистрировать коммуны почтового индекса.
type CrawlHandler struct {
	taskQueue      port.CrawlTaskQueuePort
	registerCityUC usecases_port.RegisterCityUseCasePort
}

// NewCrawlHandler - конструктор
func NewCrawlHandler(
	taskQueue port.CrawlTaskQueuePort,
	registerCityUC usecases_port.RegisterCityUseCasePort,
) *CrawlHandler {
	return &CrawlHandler{
		taskQueue:      taskQueue,
		registerCityUC: registerCityUC,
	}
}

// EnqueueCrawl ставит задачу обхода города в очередь. Сам обход выполнит
// потребитель очереди, ответ приходит сразу с идентификатором задачи.
func (h *CrawlHandler) EnqueueCrawl(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "EnqueueCrawl"})

	var req EnqueueCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode enqueue crawl request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.InseeCode == "" {
		logger.Warn("Field 'insee_code' is required", nil)
		WriteJSONError(w, http.StatusBadRequest, "Field 'insee_code' is required")
		return
	}

	task := domain.CrawlTask{
		TaskID:    uuid.New(),
		InseeCode: req.InseeCode,
		StartURL:  req.StartURL,
	}

	handlerLogger := logger.WithFields(port.Fields{
		"task_id":    task.TaskID.String(),
		"insee_code": task.InseeCode,
	})

	if err := h.taskQueue.Enqueue(r.Context(), task); err != nil {
		handlerLogger.Error("Failed to enqueue crawl task", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to enqueue crawl task")
		return
	}

	handlerLogger.Info("Crawl task accepted", nil)
	RespondWithJSON(w, http.StatusAccepted, EnqueueCrawlResponse{
		TaskID:    task.TaskID.String(),
		InseeCode: task.InseeCode,
	})
}

// RegisterCity регистрирует все коммуны почтового индекса и возвращает
// закрепленные за ними поисковые URL.
func (h *CrawlHandler) RegisterCity(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RegisterCity"})

	var req RegisterCityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode register city request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.PostalCode) != 5 {
		logger.Warn("Field 'postal_code' must be a 5-character code", nil)
		WriteJSONError(w, http.StatusBadRequest, "Field 'postal_code' must be a 5-character code")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"postal_code": req.PostalCode})
	handlerLogger.Info("Processing request to register city", nil)

	registered, err := h.registerCityUC.Execute(r.Context(), req.PostalCode)
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			handlerLogger.Warn("No municipalities found for postal code", nil)
			WriteJSONError(w, http.StatusNotFound, "No municipalities found for postal code")
			return
		}
		handlerLogger.Error("RegisterCity use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to register city")
		return
	}

	resp := RegisterCityResponse{Cities: make([]RegisteredCityResponse, 0, len(registered))}
	for _, cityURL := range registered {
		resp.Cities = append(resp.Cities, RegisteredCityResponse{
			InseeCode: cityURL.InseeCode,
			URL:       cityURL.URL,
		})
	}

	handlerLogger.Info("Cities registered", port.Fields{"count": len(resp.Cities)})
	RespondWithJSON(w, http.StatusCreated, resp)
}

// Health - проверка живости сервиса.
func (h *CrawlHandler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
