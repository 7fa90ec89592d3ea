//go:build linux

package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/edirooss/node-supervisor/internal/http/dto"
	"github.com/edirooss/node-supervisor/internal/supervisor"
	"github.com/edirooss/node-supervisor/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NodesHandler exposes the supervisor over HTTP.
//
// Supported operations:
//   - POST /nodes/launch          → launch a node or launch tree
//   - POST /nodes/terminate?name= → tear a node's process tree down
//   - GET  /nodes/{name}/status   → drain the node's event queue
//   - GET  /nodes                 → list active node names
type NodesHandler struct {
	log *zap.Logger
	svc *supervisor.Supervisor
}

// NewNodesHandler constructs a NodesHandler instance.
func NewNodesHandler(log *zap.Logger, svc *supervisor.Supervisor) *NodesHandler {
	return &NodesHandler{log: log.Named("nodes"), svc: svc}
}

// Launch handles POST /nodes/launch.
//
// Status Codes:
//   - 200 OK → node launched
//   - 400 Bad Request → malformed JSON, invalid field combination, or
//     name collision
//   - 500 Internal Server Error → spawn / environment failure
func (h *NodesHandler) Launch(c *gin.Context) {
	var req dto.NodeRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	err := h.svc.Launch(supervisor.LaunchSpec{
		Name:       req.Name,
		Package:    req.Package,
		Executable: req.Executable,
		LaunchFile: req.LaunchFile,
		Parameters: req.Parameters,
		Timeout:    -1, // configured default
	})
	if err != nil {
		c.Error(err)
		switch {
		case errors.Is(err, supervisor.ErrInvalidRequest),
			errors.Is(err, supervisor.ErrNodeAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Failed to launch node: %v", err)})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Node '%s' launched successfully.", req.Name)})
}

// Terminate handles POST /nodes/terminate?name=N.
//
// An unknown name is a logged no-op, not an error: termination is
// idempotent from the client's point of view.
//
// Status Codes:
//   - 200 OK → tree confirmed dead (or nothing to do)
//   - 400 Bad Request → missing name, or the node is still starting
func (h *NodesHandler) Terminate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "'name' query parameter is required"})
		return
	}

	if err := h.svc.Terminate(name, 0); err != nil {
		c.Error(err)
		if errors.Is(err, supervisor.ErrNodeStarting) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Failed to terminate node: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Node '%s' terminated successfully.", name)})
}

// Status handles GET /nodes/{name}/status. Draining read: queued events
// are returned once and removed.
//
// Status Codes:
//   - 200 OK → {"name":..., "status":[events]}
//   - 404 Not Found
func (h *NodesHandler) Status(c *gin.Context) {
	name := c.Param("name")

	events, err := h.svc.GetEvents(name)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}
	if events == nil {
		events = []supervisor.NodeEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "status": events})
}

// List handles GET /nodes.
func (h *NodesHandler) List(c *gin.Context) {
	names := h.svc.List()
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"nodes": names})
}
