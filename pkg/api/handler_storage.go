package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/models"
)

// listStorageHandler handles GET /api/storage?status=&search=.
func (s *Server) listStorageHandler(c *gin.Context) error {
	items, err := s.storage.List(c.Request.Context(), models.StorageFilters{
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if err != nil {
		return mapServiceError(err)
	}
	if items == nil {
		items = []*models.StorageItem{}
	}

	c.JSON(http.StatusOK, items)
	return nil
}

// storageCountsHandler handles GET /api/storage/counts.
func (s *Server) storageCountsHandler(c *gin.Context) error {
	counts, err := s.storage.Counts(c.Request.Context())
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, counts)
	return nil
}

// createStorageHandler handles POST /api/storage.
func (s *Server) createStorageHandler(c *gin.Context) error {
	var req models.CreateStorageItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	item, err := s.storage.Create(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceStorage, events.ActionCreated, item.ID))

	c.JSON(http.StatusCreated, item)
	return nil
}

// updateStorageHandler handles PUT /api/storage/:id.
func (s *Server) updateStorageHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateStorageItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	item, err := s.storage.Update(c.Request.Context(), id, req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceStorage, events.ActionUpdated, item.ID))

	c.JSON(http.StatusOK, item)
	return nil
}
