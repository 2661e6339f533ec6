package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "storefront/internal/errors"
)

// Operation executes one named API call with its raw variables.
type Operation func(c echo.Context, vars json.RawMessage) (interface{}, error)

// OperationProvider contributes named operations to the dispatcher.
type OperationProvider interface {
	Operations() map[string]Operation
}

// OperationRequest is the body of POST /api/operations.
type OperationRequest struct {
	Operation string          `json:"operation" validate:"required"`
	Variables json.RawMessage `json:"variables" swaggertype:"object"`
}

// OperationResponse wraps a successful result.
type OperationResponse struct {
	Data interface{} `json:"data"`
}

// OperationHandler dispatches operation requests by name.
type OperationHandler struct {
	ops map[string]Operation
	log *zap.Logger
}

// NewOperationHandler merges the operations of all providers. Duplicate names panic.
func NewOperationHandler(log *zap.Logger, providers ...OperationProvider) *OperationHandler {
	ops := make(map[string]Operation)
	for _, p := range providers {
		for name, op := range p.Operations() {
			if _, dup := ops[name]; dup {
				panic(fmt.Sprintf("handler: operation %q registered twice", name))
			}
			ops[name] = op
		}
	}
	return &OperationHandler{ops: ops, log: log.With(zap.String("component", "operations"))}
}

// Names returns the registered operation names in order.
func (h *OperationHandler) Names() []string {
	names := make([]string, 0, len(h.ops))
	for name := range h.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute godoc
// @Summary Execute an API operation
// @Description Runs one named operation (signup, login, products, createOrder, ...) with its variables.
// @Tags operations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OperationRequest true "Operation and variables"
// @Success 200 {object} OperationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /operations [post]
func (h *OperationHandler) Execute(c echo.Context) error {
	var req OperationRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, "", apperrors.Validation("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, "", err)
	}

	op, ok := h.ops[req.Operation]
	if !ok {
		return h.fail(c, req.Operation, apperrors.Validation(fmt.Sprintf("unknown operation %q", req.Operation)))
	}

	data, err := op(c, req.Variables)
	if err != nil {
		return h.fail(c, req.Operation, err)
	}
	return c.JSON(http.StatusOK, OperationResponse{Data: data})
}

func (h *OperationHandler) fail(c echo.Context, operation string, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		h.log.Error("operation failed",
			zap.String("operation", operation),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// decode strictly unmarshals vars into dst and validates it. Absent variables decode as {}.
func decode(c echo.Context, vars json.RawMessage, dst interface{}) error {
	if len(bytes.TrimSpace(vars)) == 0 || bytes.Equal(bytes.TrimSpace(vars), []byte("null")) {
		vars = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(vars))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation(fmt.Sprintf("invalid variables: %v", err))
	}
	return c.Validate(dst)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Validation(field + " must be a valid UUID")
	}
	return id, nil
}
