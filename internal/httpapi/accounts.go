package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/account"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

type registerBody struct {
	UserName  string `json:"user_name"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	RoleCode  string `json:"role_code"`
}

func (s *Server) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	role := types.RoleCustomer
	if body.Role != "" {
		var err error
		if role, err = types.ParseRole(body.Role); err != nil {
			s.writeError(c, err)
			return
		}
	}

	acc, err := s.app.Accounts.Register(c.Request.Context(), account.RegisterRequest{
		UserName:  body.UserName,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Role:      role,
		RoleCode:  body.RoleCode,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountView(acc))
}

type loginBody struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "user_name and password are required")
		return
	}

	acc, err := s.app.Accounts.Login(c.Request.Context(), body.UserName, body.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	token, expiresAt, err := s.tokens.Issue(acc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"account":    accountView(acc),
	})
}

func (s *Server) getProfile(c *gin.Context) {
	acc, err := s.app.Accounts.Get(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountView(acc))
}

type profileBody struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Country     *string `json:"country"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	AddressLine *string `json:"address_line"`
	ZipCode     *string `json:"zip_code"`
	Phone       *string `json:"phone"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var body profileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	acc, err := s.app.Accounts.UpdateProfile(c.Request.Context(), callerID(c), account.ProfileUpdate{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Email:       body.Email,
		Country:     body.Country,
		State:       body.State,
		City:        body.City,
		AddressLine: body.AddressLine,
		ZipCode:     body.ZipCode,
		Phone:       body.Phone,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountView(acc))
}

func (s *Server) searchCustomers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	accounts, err := s.app.Accounts.Search(c.Request.Context(), types.RoleCustomer, c.Query("q"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView(a))
	}
	c.JSON(http.StatusOK, gin.H{"customers": views, "count": len(views)})
}
