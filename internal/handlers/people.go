package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sahilm/fuzzy"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxSuggestions = 5

// PeopleHandler manages the collaborators of the current user
type PeopleHandler struct {
	userRepo UserStore
}

func NewPeopleHandler(userRepo UserStore) *PeopleHandler {
	return &PeopleHandler{userRepo: userRepo}
}

// GetPeople godoc
// @Summary List collaborators
// @Tags people
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.PeopleResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /people [get]
func (h *PeopleHandler) GetPeople(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	people, err := h.userRepo.ListPeople(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user_not_found", Message: "User not found"})
			return
		}
		serverError(c, "Failed to load people")
		return
	}

	c.JSON(http.StatusOK, models.PeopleResponse{People: people})
}

// AddPerson godoc
// @Summary Add a collaborator by email
// @Description Responds with success=false when the email is already on the list
// @Tags people
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.AddPersonRequest true "Collaborator email"
// @Success 200 {object} models.AddPersonResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /people [post]
func (h *PeopleHandler) AddPerson(c *gin.Context) {
	userID, ownEmail, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.AddPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if email == utils.NormalizeEmail(ownEmail) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "You cannot add yourself",
		})
		return
	}

	added, people, err := h.userRepo.AddPerson(c.Request.Context(), userID, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user_not_found", Message: "User not found"})
			return
		}
		serverError(c, "Failed to add person")
		return
	}

	resp := models.AddPersonResponse{Success: added, People: people}
	if !added {
		resp.Message = "This email is already added"
	}
	c.JSON(http.StatusOK, resp)
}

// directory adapts users to fuzzy.Source, matching on folded "name email".
type directory []models.User

func (d directory) String(i int) string {
	return utils.FoldAccents(d[i].Name + " " + d[i].Email)
}

func (d directory) Len() int { return len(d) }

// GetSuggestions godoc
// @Summary Suggest registered users to add
// @Description Fuzzy-matches the query against names and emails of other users
// @Tags people
// @Security ApiKeyAuth
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} map[string][]models.PersonSuggestion
// @Router /people/suggestions [get]
func (h *PeopleHandler) GetSuggestions(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	query := utils.FoldAccents(strings.TrimSpace(c.Query("q")))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"suggestions": []models.PersonSuggestion{}})
		return
	}

	ctx := c.Request.Context()

	users, err := h.userRepo.ListDirectory(ctx, userID)
	if err != nil {
		serverError(c, "Failed to load users")
		return
	}
	people, err := h.userRepo.ListPeople(ctx, userID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		serverError(c, "Failed to load people")
		return
	}
	already := make(map[string]bool, len(people))
	for _, p := range people {
		already[p] = true
	}

	suggestions := []models.PersonSuggestion{}
	for _, match := range fuzzy.FindFrom(query, directory(users)) {
		u := users[match.Index]
		if already[u.Email] {
			continue
		}
		suggestions = append(suggestions, models.PersonSuggestion{
			Email: u.Email,
			Name:  u.Name,
			Score: match.Score,
		})
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
