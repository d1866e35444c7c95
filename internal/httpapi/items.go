package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/internal/catalog"
)

func (s *Server) listItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	p, err := s.app.Catalog.ListPopular(c.Request.Context(), page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       itemViews(p.Items),
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total":       p.Total,
		"total_pages": p.TotalPages,
	})
}

func (s *Server) getItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := s.app.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemView(item))
}

type itemBody struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
}

func (s *Server) createItem(c *gin.Context) {
	var body itemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid item: "+err.Error())
		return
	}

	item, err := s.app.Catalog.CreateItem(c.Request.Context(), catalog.NewItem{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
		Price:       body.Price,
		Stock:       body.Stock,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, itemView(item))
}

type restockBody struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func (s *Server) restockItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body restockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "quantity must be a positive integer")
		return
	}

	item, err := s.app.Catalog.Restock(c.Request.Context(), id, body.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemView(item))
}

func (s *Server) deleteItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.app.Catalog.DeleteItem(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) likeItem(c *gin.Context) {
	s.setLike(c, true)
}

func (s *Server) unlikeItem(c *gin.Context) {
	s.setLike(c, false)
}

func (s *Server) setLike(c *gin.Context, like bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var (
		changed bool
		err     error
	)
	if like {
		changed, err = s.app.Catalog.Like(c.Request.Context(), callerID(c), id)
	} else {
		changed, err = s.app.Catalog.Unlike(c.Request.Context(), callerID(c), id)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (s *Server) listLiked(c *gin.Context) {
	items, err := s.app.Catalog.ListLiked(c.Request.Context(), callerID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": itemViews(items)})
}
