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

type DirectoryHandler struct{}

func NewDirectoryHandler(protected gin.IRouter) {
	handler := &DirectoryHandler{}

	protected.GET("/", handler.Index)
	protected.PUT("/search", handler.Search)
	protected.POST("/select/:id", handler.Select)
	protected.DELETE("/select", handler.ClearSelection)
	protected.GET("/profile/:id", handler.Detail)
}

type DirectoryView struct {
	SearchTerm string           `json:"search_term"`
	View       string           `json:"view"`
	Profiles   []domain.Profile `json:"profiles"`
	Total      int              `json:"total"`
	Selected   *domain.Profile  `json:"selected,omitempty"`
	IsAdmin    bool             `json:"is_admin"`
}

type SearchRequest struct {
	Term string `json:"term"`
}

// Index godoc
// @Summary      Profile directory
// @Description  Lists the profiles matching the session's search term. A q parameter replaces the term first.
// @Tags         directory
// @Produce      json
// @Param        q     query     string  false  "Search term"
// @Param        view  query     string  false  "grid or map"
// @Success      200   {object}  response.Response{data=DirectoryView}
// @Failure      503   {object}  response.Response
// @Router       / [get]
func (h *DirectoryHandler) Index(c *gin.Context) {
	store := middleware.CurrentSession(c).Store
	if q, ok := c.GetQuery("q"); ok {
		store.SetSearchTerm(q)
	}
	if store.Loading() {
		c.Error(apperror.Unavailable("Loading profiles..."))
		return
	}

	view := c.DefaultQuery("view", "grid")
	if view != "map" {
		view = "grid"
	}
	response.Success(c, http.StatusOK, "Profiles", h.directoryView(c, store, view))
}

// Search godoc
// @Summary      Update the search term
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        search  body      SearchRequest  true  "Search term"
// @Success      200     {object}  response.Response{data=DirectoryView}
// @Router       /search [put]
func (h *DirectoryHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	store := middleware.CurrentSession(c).Store
	store.SetSearchTerm(req.Term)
	response.Success(c, http.StatusOK, "Search updated", h.directoryView(c, store, "grid"))
}

// Select godoc
// @Summary      Select a profile for the map
// @Tags         directory
// @Produce      json
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /select/{id} [post]
func (h *DirectoryHandler) Select(c *gin.Context) {
	id, err := profileID(c)
	if err != nil {
		c.Error(err)
		return
	}
	store := middleware.CurrentSession(c).Store
	p, ok := store.Get(id)
	if !ok {
		c.Error(apperror.NotFound("Profile not found"))
		return
	}
	store.Select(p)
	response.Success(c, http.StatusOK, "Profile selected", p)
}

// ClearSelection godoc
// @Summary      Clear the map selection
// @Tags         directory
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /select [delete]
func (h *DirectoryHandler) ClearSelection(c *gin.Context) {
	middleware.CurrentSession(c).Store.ClearSelection()
	response.Success(c, http.StatusOK, "Selection cleared", nil)
}

// Detail godoc
// @Summary      Profile details
// @Tags         directory
// @Produce      json
// @Param        id   path      int  true  "Profile ID"
// @Success      200  {object}  response.Response{data=domain.Profile}
// @Failure      404  {object}  response.Response
// @Router       /profile/{id} [get]
func (h *DirectoryHandler) Detail(c *gin.Context) {
	id, err := profileID(c)
	if err != nil {
		c.Error(err)
		return
	}
	store := middleware.CurrentSession(c).Store
	if store.Loading() {
		c.Error(apperror.Unavailable("Loading profiles..."))
		return
	}
	p, ok := store.Get(id)
	if !ok {
		c.Error(apperror.NotFound("Profile not found"))
		return
	}
	response.Success(c, http.StatusOK, "Profile", p)
}

func (h *DirectoryHandler) directoryView(c *gin.Context, store domain.ProfileStore, view string) DirectoryView {
	profiles := store.Filtered()
	out := DirectoryView{
		SearchTerm: store.SearchTerm(),
		View:       view,
		Profiles:   profiles,
		Total:      len(store.ListAll()),
		IsAdmin:    c.GetBool(string(domain.KeyIsAdmin)),
	}
	if p, ok := store.Selected(); ok {
		out.Selected = &p
	}
	return out
}

func profileID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("Profile not found")
	}
	return id, nil
}
