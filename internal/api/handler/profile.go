package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type profileUpdateRequest struct {
	Email     string   `json:"email"`
	School    string   `json:"school"`
	Interests []string `json:"interests"`
}

// GetProfile returns the authenticated user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// UpdateProfile changes email, school, or interest tags. Changing school
// does not touch an ongoing chat; it only affects future matching.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)

	if req.Email != "" && req.Email != user.Email {
		other, err := h.Storage.GetUserByEmail(req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
			return
		}
		if other != nil && other.ID != user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
			return
		}
		user.Email = req.Email
	}
	if req.School != "" {
		user.School = req.School
	}
	if req.Interests != nil {
		user.Interests = pq.StringArray(req.Interests)
	}

	if err := h.Storage.UpdateUser(user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": user})
}
