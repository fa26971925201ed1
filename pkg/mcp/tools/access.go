// Package tools provides the MCP tools exposed by the ColdConnect engine.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// ToolAccessError is an actionable error returned to the MCP client as a tool
// result instead of a protocol error, so the calling model can read it.
type ToolAccessError struct {
	Code      string
	Message   string
	MCPResult *mcp.CallToolResult
}

func (e *ToolAccessError) Error() string {
	return e.Message
}

// AsToolAccessResult returns the prepared tool result when err is a
// ToolAccessError, and nil otherwise.
//
//	owner, ctx, cleanup, err := AcquireOwnerScope(ctx, deps.Scopes, "my_tool")
//	if err != nil {
//	    if result := AsToolAccessResult(err); result != nil {
//	        return result, nil
//	    }
//	    return nil, err
//	}
func AsToolAccessResult(err error) *mcp.CallToolResult {
	var accessErr *ToolAccessError
	if errors.As(err, &accessErr) {
		return accessErr.MCPResult
	}
	return nil
}

func newToolAccessError(code, message string) *ToolAccessError {
	return &ToolAccessError{
		Code:      code,
		Message:   message,
		MCPResult: NewErrorResult(code, message),
	}
}

// OwnerScoper opens an owner-scoped database context. It is satisfied by
// *database.OwnerScopeProvider.
type OwnerScoper interface {
	WithOwnerScope(ctx context.Context, owner models.OwnerID) (context.Context, func(), error)
}

// AcquireOwnerScope resolves the caller from the JWT claims in ctx and opens an
// owner scope for the tool call. The returned cleanup must always be called
// when err is nil.
func AcquireOwnerScope(ctx context.Context, scoper OwnerScoper, logger *zap.Logger, toolName string) (models.OwnerID, context.Context, func(), error) {
	owner, err := auth.OwnerFromContext(ctx)
	if err != nil {
		return models.OwnerID{}, nil, nil, newToolAccessError("unauthorized", "authentication required: "+err.Error())
	}

	scopedCtx, cleanup, err := scoper.WithOwnerScope(ctx, owner)
	if err != nil {
		logger.Error("Failed to acquire owner scope",
			zap.String("tool", toolName),
			zap.String("owner", owner.String()),
			zap.Error(err))
		return models.OwnerID{}, nil, nil, fmt.Errorf("acquire owner scope: %w", err)
	}
	return owner, scopedCtx, cleanup, nil
}
