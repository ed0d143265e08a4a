package v1

import (
	"net/http"
	"strconv"

	"profile-mapper-backend/internal/delivery/http/middleware"
	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type MapHandler struct {
	mapUC domain.MapUsecase
}

func NewMapHandler(protected gin.IRouter, mapUC domain.MapUsecase) {
	handler := &MapHandler{mapUC: mapUC}

	protected.GET("/map", handler.View)
	protected.GET("/map/token", handler.GetToken)
	protected.PUT("/map/token", handler.SaveToken)
	protected.DELETE("/map/token", handler.ClearToken)
	protected.POST("/map/errors", handler.ReportError)
}

type MapTokenRequest struct {
	Token string `json:"token"`
}

type MapErrorRequest struct {
	Message string `json:"message"`
}

// View godoc
// @Summary      Map view
// @Description  Markers for the filtered profiles framed by their bounds, or a single focal profile at zoom 14. Without a stored token only the prompt is returned.
// @Tags         map
// @Produce      json
// @Param        focus  query     int  false  "Profile ID to focus; defaults to the session's selection"
// @Success      200    {object}  response.Response{data=domain.MapView}
// @Failure      404    {object}  response.Response
// @Failure      503    {object}  response.Response
// @Router       /map [get]
func (h *MapHandler) View(c *gin.Context) {
	store := middleware.CurrentSession(c).Store
	if store.Loading() {
		c.Error(apperror.Unavailable("Loading profiles..."))
		return
	}

	var focus *domain.Profile
	if raw := c.Query("focus"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Error(apperror.NotFound("Profile not found"))
			return
		}
		p, ok := store.Get(id)
		if !ok {
			c.Error(apperror.NotFound("Profile not found"))
			return
		}
		focus = &p
	} else if p, ok := store.Selected(); ok {
		focus = &p
	}

	view, err := h.mapUC.View(c.Request.Context(), tokenOwner(c), store.Filtered(), focus)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Map", view)
}

// GetToken godoc
// @Summary      Map token status
// @Tags         map
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /map/token [get]
func (h *MapHandler) GetToken(c *gin.Context) {
	view, err := h.mapUC.View(c.Request.Context(), tokenOwner(c), nil, nil)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Map token", gin.H{
		"token_required": view.TokenRequired,
		"access_token":   view.AccessToken,
	})
}

// SaveToken godoc
// @Summary      Store the map access token
// @Tags         map
// @Accept       json
// @Produce      json
// @Param        token  body      MapTokenRequest  true  "Mapbox public token"
// @Success      200    {object}  response.Response
// @Failure      422    {object}  response.Response
// @Router       /map/token [put]
func (h *MapHandler) SaveToken(c *gin.Context) {
	var req MapTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	if err := h.mapUC.SaveToken(c.Request.Context(), tokenOwner(c), req.Token); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Map token saved", nil)
}

// ClearToken godoc
// @Summary      Forget the map access token
// @Tags         map
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /map/token [delete]
func (h *MapHandler) ClearToken(c *gin.Context) {
	if err := h.mapUC.ClearToken(c.Request.Context(), tokenOwner(c)); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Map token cleared", nil)
}

// ReportError godoc
// @Summary      Report a map renderer error
// @Description  Authorization failures clear the stored token and answer 401 with token_cleared
// @Tags         map
// @Accept       json
// @Produce      json
// @Param        error  body      MapErrorRequest  true  "Renderer error"
// @Success      200    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Router       /map/errors [post]
func (h *MapHandler) ReportError(c *gin.Context) {
	var req MapErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	cleared, err := h.mapUC.ReportError(c.Request.Context(), tokenOwner(c), req.Message)
	if cleared {
		msg := "Map access token was rejected"
		if err != nil {
			msg = err.Error()
		}
		response.Error(c, http.StatusUnauthorized, msg, gin.H{"token_cleared": true})
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Map error recorded", gin.H{"token_cleared": false})
}

// tokenOwner keys the map token by user, falling back to the session.
func tokenOwner(c *gin.Context) string {
	if id := c.GetString(string(domain.KeyUserID)); id != "" {
		return id
	}
	return "session:" + c.GetString(string(domain.KeySessionID))
}
