package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DaudDevs/conect-voucher-market/internal/crudform"
	"github.com/DaudDevs/conect-voucher-market/internal/datastore"
	"github.com/DaudDevs/conect-voucher-market/pkg/ctxmanage"
	"github.com/DaudDevs/conect-voucher-market/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// ListCollections returns the names the CRUD manager may operate on.
func (h *Handler) ListCollections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"collections": datastore.Collections()})
}

// AdminList returns all records of a collection, optionally filtered by the
// q search term.
func (h *Handler) AdminList(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	collection := c.Param("collection")

	records, err := h.ds.Select(c.Request.Context(), collection, c.Query("q"))
	if err != nil {
		if errors.Is(err, datastore.ErrInvalidCollection) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid collection: " + collection})
			return
		}
		slog.Error("error listing records", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Collection, collection), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// AdminSchema returns the rendered form descriptor for a collection. Without
// an id query parameter it is the create-mode form built from the hardcoded
// default schema; with one it is the edit-mode form inferred from the record.
func (h *Handler) AdminSchema(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	collection := c.Param("collection")

	var initial datastore.Record
	if id := c.Query("id"); id != "" {
		rec, err := h.ds.Get(c.Request.Context(), collection, id)
		if err != nil {
			h.abortDatastoreError(c, traceId, collection, err)
			return
		}
		initial = rec
	}

	form, err := crudform.New(h.ds, collection, initial)
	if err != nil {
		if errors.Is(err, datastore.ErrInvalidCollection) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid collection: " + collection})
			return
		}
		slog.Error("error building form", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Collection, collection), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build form"})
		return
	}

	fields, err := form.Fields(c.Request.Context())
	if err != nil {
		slog.Error("error resolving form fields", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Collection, collection), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build form"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"editing": form.Editing(), "fields": fields})
}

// AdminCreate inserts a record built from the create-mode form.
func (h *Handler) AdminCreate(c *gin.Context) {
	h.submitForm(c, nil)
}

// AdminUpdate merges the submitted values into an existing record.
func (h *Handler) AdminUpdate(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	collection := c.Param("collection")

	initial, err := h.ds.Get(c.Request.Context(), collection, c.Param("id"))
	if err != nil {
		h.abortDatastoreError(c, traceId, collection, err)
		return
	}
	h.submitForm(c, initial)
}

func (h *Handler) submitForm(c *gin.Context, initial datastore.Record) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	collection := c.Param("collection")

	var values datastore.Record
	if err := c.ShouldBindJSON(&values); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	form, err := crudform.New(h.ds, collection, initial)
	if err != nil {
		if errors.Is(err, datastore.ErrInvalidCollection) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid collection: " + collection})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build form"})
		return
	}

	saved, err := form.Submit(c.Request.Context(), values)
	if err != nil {
		var fieldErrs crudform.FieldErrors
		if errors.As(err, &fieldErrs) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fieldErrs})
			return
		}
		slog.Error("error saving record", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Collection, collection), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save record"})
		return
	}

	slog.Info("record saved", slog.String(logkey.TraceID, traceId), slog.String(logkey.Collection, collection))
	c.JSON(http.StatusOK, gin.H{"record": saved})
}

// AdminDelete removes one record by id.
func (h *Handler) AdminDelete(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	collection := c.Param("collection")

	if err := h.ds.Delete(c.Request.Context(), collection, c.Param("id")); err != nil {
		h.abortDatastoreError(c, traceId, collection, err)
		return
	}

	slog.Info("record deleted", slog.String(logkey.TraceID, traceId), slog.String(logkey.Collection, collection))
	c.JSON(http.StatusOK, gin.H{"message": "Item successfully deleted"})
}

func (h *Handler) abortDatastoreError(c *gin.Context, traceId, collection string, err error) {
	switch {
	case errors.Is(err, datastore.ErrInvalidCollection):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid collection: " + collection})
	case errors.Is(err, datastore.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		slog.Error("datastore error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Collection, collection), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
