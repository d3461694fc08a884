package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helio/telemed/internal/platform/auth"
	"github.com/helio/telemed/pkg/pagination"
)

type Handler struct {
	svc    *Service
	issuer *auth.Issuer
}

func NewHandler(svc *Service, issuer *auth.Issuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

// RegisterRoutes mounts identity routes. Registration, login and the doctor
// directory are public; /auth/me requires a bearer token.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.GET("/doctors", h.ListDoctors)
	public.GET("/doctors/:id", h.GetDoctor)
	authed.GET("/auth/me", h.Me)
}

// userResponse is the account shape returned by login and /auth/me.
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
	LastLogin any       `json:"last_login,omitempty"`
}

func newUserResponse(a *Account, p *Profile) userResponse {
	resp := userResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		Profile:  p,
	}
	if a.LastLogin != nil {
		resp.LastLogin = a.LastLogin
	}
	return resp
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentifier) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.issuer.Issue(account.ID, string(account.Role))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"access_token": token,
		"user_type":    account.Role,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	token, err := h.issuer.Issue(account.ID, string(account.Role))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	_, profile, err := h.svc.Resolve(c.Request().Context(), account.ID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  newUserResponse(account, profile),
	})
}

func (h *Handler) Me(c echo.Context) error {
	accountID := auth.AccountIDFromContext(c.Request().Context())

	account, profile, err := h.svc.Resolve(c.Request().Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrProfileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": newUserResponse(account, profile),
	})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if p := c.QueryParam("search"); p != "" {
		params["search"] = p
	}
	if p := c.QueryParam("specialization"); p != "" {
		params["specialization"] = p
	}
	if p := c.QueryParam("availability_status"); p != "" {
		params["availability_status"] = p
	}

	items, total, err := h.svc.SearchDoctors(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doctor, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doctor)
}
