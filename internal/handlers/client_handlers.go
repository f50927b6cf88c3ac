package handlers

import (
	"net/http"
	"strconv"

	"github.com/niel17/invoiceflow/internal/common"
	"github.com/niel17/invoiceflow/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers handles HTTP requests for clients
type ClientHandlers struct {
	clientService services.ClientService
}

func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

type clientRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Zip     *string `json:"zip"`
	Country *string `json:"country"`
}

// CreateClient handles POST /v1/clients
func (h *ClientHandlers) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Name == nil || *req.Name == "" {
		return common.SendValidationError(c, "name", "Client name is required")
	}

	client, err := h.clientService.CreateClient(ctx, userID, services.CreateClientParams{
		Name:    *req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
	})
	if err != nil {
		return common.SendServerError(c, "Failed to create client")
	}

	return c.JSON(http.StatusCreated, client)
}

// GetClientByID handles GET /v1/clients/:id
func (h *ClientHandlers) GetClientByID(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	client, err := h.clientService.GetClientByID(ctx, userID, clientID)
	if err != nil {
		return common.SendServerError(c, "Failed to load client")
	}
	if client == nil {
		return common.SendNotFoundError(c, "client")
	}

	return c.JSON(http.StatusOK, client)
}

// ListClients handles GET /v1/clients
func (h *ClientHandlers) ListClients(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	clients, err := h.clientService.ListClients(ctx, userID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list clients")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateClient handles PUT /v1/clients/:id
func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req clientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Name != nil && *req.Name == "" {
		return common.SendValidationError(c, "name", "Client name cannot be empty")
	}

	client, err := h.clientService.UpdateClient(ctx, userID, clientID, services.UpdateClientParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
	})
	if err != nil {
		return common.SendServerError(c, "Failed to update client")
	}
	if client == nil {
		return common.SendNotFoundError(c, "client")
	}

	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /v1/clients/:id
func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	clientID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	deleted, err := h.clientService.DeleteClient(ctx, userID, clientID)
	if err != nil {
		return common.SendServerError(c, "Failed to delete client")
	}
	if !deleted {
		return common.SendNotFoundError(c, "client")
	}

	return c.NoContent(http.StatusNoContent)
}
