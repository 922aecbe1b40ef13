package handler

import (
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/middleware"
	"quizforge/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles the generation, health and catalog routes
type QuizHandler struct {
	quizzes service.QuizGenerator
	catalog service.ModelCatalog
	version string
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizzes service.QuizGenerator, catalog service.ModelCatalog, version string) *QuizHandler {
	return &QuizHandler{
		quizzes: quizzes,
		catalog: catalog,
		version: version,
	}
}

// GenerateQuiz godoc
// @Summary Generate a quiz
// @Description Generates multiple-choice questions from source text with the selected provider
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Source text and settings"
// @Success 200 {object} dto.GenerateQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} dto.GenerateQuizFailureResponse
// @Router /generate [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	req, ok := middleware.GenerateRequest(c)
	if !ok {
		req = new(dto.GenerateQuizRequest)
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	result, err := h.quizzes.GenerateQuiz(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}

	if result.Fallback {
		logger.Get().Warn("Serving fallback quiz",
			zap.String("request_id", middleware.RequestID(c)),
			zap.String("provider", string(result.Provider)),
			zap.String("model", result.Model),
			zap.Int("attempts", result.Attempts))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.GenerateQuizFailureResponse{
			Error:     result.Error,
			Questions: result.Questions,
		})
	}

	return c.JSON(dto.GenerateQuizResponse{Questions: result.Questions})
}

// Health godoc
// @Summary Service health
// @Description Reports which providers are configured; probe=true also checks reachability
// @Tags health
// @Produce json
// @Param probe query bool false "Run availability probes"
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *QuizHandler) Health(c *fiber.Ctx) error {
	states := h.quizzes.ProviderStatus(c.UserContext(), c.QueryBool("probe", false))

	services := make(map[string]dto.ProviderStatus, len(states))
	for kind, st := range states {
		services[string(kind)] = dto.ProviderStatus{Configured: st.Configured, Available: st.Available}
	}

	return c.JSON(dto.HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Services: services,
	})
}

// ListModels godoc
// @Summary Local models
// @Description Lists the models installed on the local inference server
// @Tags models
// @Produce json
// @Success 200 {object} dto.ModelsResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /models [get]
func (h *QuizHandler) ListModels(c *fiber.Ctx) error {
	models, err := h.catalog.ListModels(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ModelsResponse{Models: models})
}

// RegisterRoutes mounts the handler under router.
func (h *QuizHandler) RegisterRoutes(router fiber.Router, validator *middleware.ValidationMiddleware) {
	router.Post("/generate", validator.ValidateGenerateRequest(), h.GenerateQuiz)
	router.Get("/health", h.Health)
	router.Get("/models", h.ListModels)
}
