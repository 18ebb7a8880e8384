package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
)

// AuditHandler consulta la bitácora del negocio.
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler construye el handler.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// List godoc
// @Summary      Consultar bitácora
// @Description  Más recientes primero. Exige la funcionalidad audit_logs en el plan.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        actor_id     query  string  false  "Actor"
// @Param        action       query  string  false  "Acción"
// @Param        entity_type  query  string  false  "Tipo de entidad"
// @Param        from         query  string  false  "Desde (RFC3339)"
// @Param        to           query  string  false  "Hasta (RFC3339)"
// @Param        limit        query  int     false  "Límite"  default(50)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AuditListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, errInvalidBody)
	}
	if err := validate.Struct(q); err != nil {
		return writeError(c, err)
	}
	f, err := audit.FilterFromQuery(q)
	if err != nil {
		return writeError(c, err)
	}
	entries, err := h.recorder.List(c.UserContext(), tc, f)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AuditListResponse{Items: make([]dto.AuditEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Items = append(out.Items, audit.ToEntryResponse(e))
	}
	out.Page = dto.PageResponse{Limit: f.Limit, Offset: f.Offset}
	return c.JSON(out)
}
