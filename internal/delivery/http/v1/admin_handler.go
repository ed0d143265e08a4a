package v1

import (
	"errors"
	"net/http"
	"net/url"

	"profile-mapper-backend/internal/delivery/http/middleware"
	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/security"
	"profile-mapper-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminUC domain.AdminUsecase
	audit   *security.AuditLogger
}

func NewAdminHandler(admin gin.IRouter, adminUC domain.AdminUsecase, audit *security.AuditLogger) {
	handler := &AdminHandler{adminUC: adminUC, audit: audit}

	admin.GET("/admin", handler.Dashboard)
	admin.GET("/admin/add", handler.NewForm)
	admin.POST("/admin/add", handler.Create)
	admin.GET("/admin/edit/:id", handler.EditForm)
	admin.PUT("/admin/edit/:id", handler.Update)
	admin.DELETE("/admin/profiles/:id", handler.Delete)
}

type FormView struct {
	Mode    domain.FormMode     `json:"mode"`
	ID      int64               `json:"id,omitempty"`
	Profile domain.ProfileInput `json:"profile"`
}

// Dashboard godoc
// @Summary      Admin dashboard
// @Description  Lists every profile regardless of the search term
// @Tags         admin
// @Produce      json
// @Param        error  query     string  false  "Message carried over from a redirect"
// @Success      200    {object}  response.Response
// @Success      302
// @Failure      503    {object}  response.Response
// @Router       /admin [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	store := middleware.CurrentSession(c).Store
	if store.Loading() {
		c.Error(apperror.Unavailable("Loading profiles..."))
		return
	}
	data := gin.H{"profiles": store.ListAll()}
	if msg := c.Query("error"); msg != "" {
		data["error"] = msg
	}
	response.Success(c, http.StatusOK, "Profiles", data)
}

// NewForm godoc
// @Summary      Blank profile form
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.Response{data=FormView}
// @Router       /admin/add [get]
func (h *AdminHandler) NewForm(c *gin.Context) {
	response.Success(c, http.StatusOK, "Add profile", FormView{Mode: domain.FormModeAdd, Profile: h.adminUC.NewForm()})
}

// Create godoc
// @Summary      Add a profile
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.ProfileInput  true  "Profile"
// @Success      201      {object}  response.Response{data=domain.Profile}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/add [post]
func (h *AdminHandler) Create(c *gin.Context) {
	in, err := bindProfile(c)
	if err != nil {
		c.Error(err)
		return
	}
	session := middleware.CurrentSession(c)
	created, err := h.adminUC.Submit(c.Request.Context(), session.ID, session.Store, domain.FormModeAdd, domain.Profile{ProfileInput: in})
	if err != nil {
		c.Error(err)
		return
	}
	h.logMutation(c, domain.MutationAdd, created.ID)
	response.Success(c, http.StatusCreated, "Profile added successfully", gin.H{"profile": created, "redirect_to": "/admin"})
}

// EditForm godoc
// @Summary      Profile edit form
// @Description  Unknown ids redirect to the dashboard with "Profile not found"
// @Tags         admin
// @Produce      json
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  response.Response{data=FormView}
// @Success      302
// @Router       /admin/edit/{id} [get]
func (h *AdminHandler) EditForm(c *gin.Context) {
	id, err := profileID(c)
	if err == nil {
		var p domain.Profile
		p, err = h.adminUC.EditForm(middleware.CurrentSession(c).Store, id)
		if err == nil {
			response.Success(c, http.StatusOK, "Edit profile", FormView{Mode: domain.FormModeEdit, ID: p.ID, Profile: p.ProfileInput})
			return
		}
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
		c.Redirect(http.StatusFound, "/admin?error="+url.QueryEscape(appErr.Message))
		return
	}
	c.Error(err)
}

// Update godoc
// @Summary      Update a profile
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Profile ID"
// @Param        profile  body      domain.ProfileInput  true  "Profile"
// @Success      200      {object}  response.Response{data=domain.Profile}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/edit/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := profileID(c)
	if err != nil {
		c.Error(err)
		return
	}
	in, err := bindProfile(c)
	if err != nil {
		c.Error(err)
		return
	}
	session := middleware.CurrentSession(c)
	updated, err := h.adminUC.Submit(c.Request.Context(), session.ID, session.Store, domain.FormModeEdit, domain.Profile{ID: id, ProfileInput: in})
	if err != nil {
		c.Error(err)
		return
	}
	h.logMutation(c, domain.MutationUpdate, updated.ID)
	response.Success(c, http.StatusOK, "Profile updated successfully", gin.H{"profile": updated, "redirect_to": "/admin"})
}

// Delete godoc
// @Summary      Delete a profile
// @Description  Deleting an unknown id succeeds without effect
// @Tags         admin
// @Produce      json
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  response.Response
// @Router       /admin/profiles/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := profileID(c)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.adminUC.Delete(c.Request.Context(), middleware.CurrentSession(c).Store, id); err != nil {
		c.Error(err)
		return
	}
	h.logMutation(c, domain.MutationRemove, id)
	response.Success(c, http.StatusOK, "Profile deleted", nil)
}

func (h *AdminHandler) logMutation(c *gin.Context, kind domain.MutationKind, id int64) {
	h.audit.Log(security.Event{
		Type:      security.EventAdminMutation,
		UserID:    c.GetString(string(domain.KeyUserID)),
		IP:        c.ClientIP(),
		RequestID: c.GetString("RequestID"),
		Details:   map[string]any{"action": string(kind), "profile_id": id},
	})
}

// bindProfile decodes the form body. A malformed coordinates array is reported
// as a field error like any other validation failure.
func bindProfile(c *gin.Context) (domain.ProfileInput, error) {
	var in domain.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if errors.Is(err, domain.ErrInvalidCoordinates) {
			return in, apperror.Validation(map[string]string{"coordinates": validation.FieldMessages["coordinates"]})
		}
		return in, apperror.BadRequest("Invalid request body")
	}
	return in, nil
}
