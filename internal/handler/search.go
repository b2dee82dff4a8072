package handler

import (
	"net/http"

	"fodmate-backend/internal/catalog"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	catalog *catalog.Store
}

func NewSearchHandler(store *catalog.Store) *SearchHandler {
	return &SearchHandler{catalog: store}
}

type ratedFood struct {
	Food   catalog.FoodRecord   `json:"food"`
	Rating catalog.RatingResult `json:"rating"`
}

func rateAll(foods []catalog.FoodRecord) []ratedFood {
	results := make([]ratedFood, 0, len(foods))
	for _, f := range foods {
		results = append(results, ratedFood{Food: f, Rating: catalog.Rate(f)})
	}
	return results
}

// Search serves catalog lookups: by id, free-text query, category or rating
// bucket. With no parameters it returns the full catalog; the distinct
// category list is available via ?categories=true.
func (h *SearchHandler) Search(c *gin.Context) {
	if id, ok := c.GetQuery("id"); ok {
		food, found := h.catalog.FindByID(id)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Food not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"food":   food,
			"rating": catalog.Rate(food),
		})
		return
	}

	if q, ok := c.GetQuery("q"); ok {
		if len(q) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query must be at least 2 characters"})
			return
		}
		results := rateAll(h.catalog.Search(q))
		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"total":   len(results),
			"query":   q,
		})
		return
	}

	if category, ok := c.GetQuery("category"); ok {
		results := rateAll(h.catalog.FilterByCategory(category))
		c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
		return
	}

	if rating, ok := c.GetQuery("rating"); ok {
		results := rateAll(h.catalog.FilterByRating(rating))
		c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
		return
	}

	if c.Query("categories") == "true" {
		c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
		return
	}

	results := rateAll(h.catalog.ListAll())
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}
