package pharmacy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helio/telemed/internal/domain/identity"
	"github.com/helio/telemed/internal/platform/auth"
	"github.com/helio/telemed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public catalog on public and everything else
// on the authenticated group.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/medicines", h.ListMedicines)

	readers := api.Group("", auth.RequireRole(
		string(identity.RolePatient), string(identity.RoleDoctor), string(identity.RolePharmacist)))
	readers.GET("/prescriptions", h.ListPrescriptions)

	doctors := api.Group("", auth.RequireRole(string(identity.RoleDoctor)))
	doctors.POST("/prescriptions", h.CreatePrescription)

	pharmacists := api.Group("", auth.RequireRole(string(identity.RolePharmacist)))
	pharmacists.POST("/prescriptions/:id/dispense", h.Dispense)
	pharmacists.PUT("/medicine-requests/:id", h.UpdateRequest)

	patients := api.Group("", auth.RequireRole(string(identity.RolePatient)))
	patients.POST("/medicine-requests", h.CreateRequest)

	requesters := api.Group("", auth.RequireRole(
		string(identity.RolePatient), string(identity.RolePharmacist)))
	requesters.GET("/medicine-requests", h.ListRequests)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := MedicineFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		LowStock: c.QueryParam("low_stock") == "true",
	}

	items, total, err := h.svc.SearchMedicines(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	accountID := auth.AccountIDFromContext(ctx)
	role := identity.Role(auth.RoleFromContext(ctx))

	items, total, err := h.svc.ListPrescriptions(ctx, accountID, role, pg.Limit, pg.Offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var in PrescriptionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p, err := h.svc.CreatePrescription(ctx, auth.AccountIDFromContext(ctx), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := h.svc.Dispense(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrPrescriptionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyDispensed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in RequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	req, err := h.svc.CreateRequest(ctx, auth.AccountIDFromContext(ctx), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) ListRequests(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	accountID := auth.AccountIDFromContext(ctx)
	role := identity.Role(auth.RoleFromContext(ctx))

	items, total, err := h.svc.ListRequests(ctx, accountID, role, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateRequestBody struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body updateRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req, err := h.svc.UpdateRequestStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, req)
}
