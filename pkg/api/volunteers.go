package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func (s *Server) registerVolunteer(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := s.svc.Registry.Register(c.Request.Context(), session(c), model.Volunteer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVolunteerJSON(*v))
}

func (s *Server) listVolunteers(c *gin.Context) {
	volunteers, err := s.svc.Registry.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": mapSlice(volunteers, toVolunteerJSON)})
}

func (s *Server) getVolunteer(c *gin.Context) {
	v, err := s.svc.Registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVolunteerJSON(*v))
}

func (s *Server) deactivateVolunteer(c *gin.Context) {
	v, err := s.svc.Registry.Deactivate(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVolunteerJSON(*v))
}
