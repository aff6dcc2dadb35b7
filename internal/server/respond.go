package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/api"
)

func respond(c *gin.Context, status int, body any, message string) {
	c.JSON(status, api.Envelope[any]{
		ResponseSuccessful: true,
		ResponseMessage:    message,
		ResponseBody:       body,
	})
}

func (s *Server) abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, api.Envelope[any]{
		ResponseSuccessful: false,
		ResponseMessage:    messageFor(err),
	})
}

func statusFor(err error) int {
	var inUse *CategoryInUseError
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &inUse), errors.Is(err, errors.AlreadyExists):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	var inUse *CategoryInUseError
	if errors.As(err, &inUse) {
		return fmt.Sprintf("Cannot delete a category that still has %d products", inUse.Products)
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		fields := make([]string, 0, len(invalid))
		for _, fe := range invalid {
			fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return "Invalid request: " + strings.Join(fields, ", ")
	}
	if statusFor(err) >= http.StatusInternalServerError {
		return api.FallbackMessage
	}
	return err.Error()
}

// bindValid decodes the JSON body into T and runs struct validation. It
// aborts the request and reports false on failure.
func bindValid[T any](s *Server, c *gin.Context) (T, bool) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abort(c, errors.NewBadRequest(err, "malformed request body"))
		return in, false
	}
	if err := s.validate.Struct(in); err != nil {
		s.abort(c, err)
		return in, false
	}
	return in, true
}

type storeScoped[T any] interface {
	WithStore(storeID int64) T
}

// bindScoped is bindValid for payloads that belong to a store. The store from
// the query string overrides whatever the body says.
func bindScoped[T storeScoped[T]](s *Server, c *gin.Context, storeID int64) (T, bool) {
	in, ok := bindPatch[T](s, c)
	if !ok {
		return in, false
	}
	in = in.WithStore(storeID)
	if err := s.validate.Struct(in); err != nil {
		s.abort(c, err)
		return in, false
	}
	return in, true
}

// bindPatch decodes a partial update body; patches carry no validation tags.
func bindPatch[T any](s *Server, c *gin.Context) (T, bool) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abort(c, errors.NewBadRequest(err, "malformed request body"))
		return in, false
	}
	return in, true
}

func pathID(s *Server, c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.abort(c, errors.NewBadRequest(err, fmt.Sprintf("invalid id %q", c.Param("id"))))
		return 0, false
	}
	return id, true
}

// storeScope reads the storeId query parameter and checks the caller may act
// on that store.
func (s *Server) storeScope(c *gin.Context) (int64, bool) {
	raw := c.Query("storeId")
	storeID, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil || storeID <= 0 {
		s.abort(c, errors.NewBadRequest(nil, "storeId is required"))
		return 0, false
	}
	if !s.canAccessStore(c, storeID) {
		return 0, false
	}
	return storeID, true
}

func (s *Server) canAccessStore(c *gin.Context, storeID int64) bool {
	store, err := s.repo.Store(storeID)
	if err != nil {
		s.abort(c, err)
		return false
	}
	if userID, ok := currentUser(c); ok && store.OwnerID != 0 && store.OwnerID != userID {
		s.abort(c, errors.NewForbidden(nil, "store belongs to another user"))
		return false
	}
	return true
}
