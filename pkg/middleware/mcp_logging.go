package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

// maxLoggedArgumentRunes caps string arguments in logs. Job descriptions are
// often several kilobytes.
const maxLoggedArgumentRunes = 200

var sensitiveArgumentKeywords = []string{"password", "secret", "token", "key", "credential"}

// MCPRequestLogger returns middleware that logs MCP JSON-RPC requests and
// responses: the tool name, sanitized arguments, the caller and any JSON-RPC
// error. Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

			var rpcReq jsonRPCRequest
			if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil {
				logger.Debug("Failed to parse MCP request JSON", zap.Error(err))
			}

			toolName := rpcReq.Params.Name
			fields := []zap.Field{
				zap.String("method", rpcReq.Method),
				zap.String("tool", toolName),
				zap.Any("arguments", sanitizeArguments(rpcReq.Params.Arguments)),
			}
			if owner, err := auth.OwnerFromContext(r.Context()); err == nil {
				fields = append(fields, zap.String("owner", owner.String()))
			}
			logger.Debug("MCP request", fields...)

			recorder := &mcpResponseRecorder{
				ResponseWriter: w,
				body:           &bytes.Buffer{},
			}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			duration := time.Since(start)

			var rpcResp jsonRPCResponse
			if err := json.Unmarshal(recorder.body.Bytes(), &rpcResp); err != nil {
				logger.Debug("Failed to parse MCP response JSON", zap.Error(err))
				return
			}

			if rpcResp.Error != nil {
				logger.Debug("MCP response error",
					zap.String("tool", toolName),
					zap.Int("error_code", rpcResp.Error.Code),
					zap.String("error_message", logging.SanitizeText(rpcResp.Error.Message)),
					zap.Duration("duration", duration),
				)
				return
			}
			logger.Debug("MCP response success",
				zap.String("tool", toolName),
				zap.Bool("tool_error", rpcResp.Result.IsError),
				zap.Duration("duration", duration),
			)
		})
	}
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type jsonRPCResponse struct {
	Result struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *jsonRPCError `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// mcpResponseRecorder captures the response body while writing it through.
type mcpResponseRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (r *mcpResponseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *mcpResponseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sanitizeArguments redacts sensitive fields and truncates long strings.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveArgument(k) {
			result[k] = logging.RedactedText
			continue
		}
		if str, ok := v.(string); ok && utf8.RuneCountInString(str) > maxLoggedArgumentRunes {
			result[k] = logging.TruncateRunes(str, maxLoggedArgumentRunes) + "..."
			continue
		}
		result[k] = v
	}
	return result
}

func isSensitiveArgument(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveArgumentKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
