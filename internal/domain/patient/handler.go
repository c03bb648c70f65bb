package patient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/patientlookup/internal/platform/httperr"
	"github.com/ehr/patientlookup/pkg/pagination"
)

const (
	msgNotFound      = "Patient not found"
	msgMalformedBody = "Malformed JSON request body"
	msgPatchObject   = "Patch body must be a JSON object"
)

// Handler serves the patient REST endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new patient handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the /patients endpoints on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients/:id", h.GetPatient)
	g.PUT("/patients/:id", h.UpdatePatient)
	g.PATCH("/patients/:id", h.PatchPatient)
	g.DELETE("/patients/:id", h.DeletePatient)
}

func (h *Handler) ListPatients(c echo.Context) error {
	page, err := pagination.FromContext(c, SortFields...)
	if err != nil {
		return err
	}
	env, err := h.svc.List(c.Request().Context(), c.QueryParam("name"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, env)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	fields, err := req.Validate(h.svc.Now())
	if err != nil {
		return err
	}
	resp, err := h.svc.Create(c.Request().Context(), fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	resp, found, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return httperr.NotFound(msgNotFound)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdatePatientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	fields, err := req.Validate(h.svc.Now())
	if err != nil {
		return err
	}
	resp, found, err := h.svc.Update(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}
	if !found {
		return httperr.NotFound(msgNotFound)
	}
	return c.JSON(http.StatusOK, resp)
}

// PatchPatient validates the whole payload before looking the patient up,
// so a bad body is a 400 even for an unknown id.
func (h *Handler) PatchPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return httperr.Field("body", msgPatchObject)
	}
	updates, err := ParsePatch(raw, h.svc.Now())
	if err != nil {
		return err
	}
	resp, found, err := h.svc.Patch(c.Request().Context(), id, updates)
	if err != nil {
		return err
	}
	if !found {
		return httperr.NotFound(msgNotFound)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	found, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return httperr.NotFound(msgNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, httperr.Field("id", httperr.InvalidFormat)
	}
	return id, nil
}

// bind decodes a JSON body and reports wrongly typed values against the
// field they were sent for.
func bind(c echo.Context, dst interface{}) error {
	err := c.Bind(dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if typeErr.Field == "dateOfBirth" {
			return httperr.Field(typeErr.Field, msgDOBFormat)
		}
		return httperr.Field(typeErr.Field, httperr.InvalidFormat)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return httperr.Field("body", msgMalformedBody)
	}
	return err
}
