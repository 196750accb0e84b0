// Command demo-gin is a minimal Gin host exercising the full toolbridge
// pipeline end to end: an Ollama model with no native tool-calling support,
// wrapped in ToolCallMiddleware so it can still declare and call tools, with
// both a batch JSON endpoint and an SSE streaming one.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kestrel-ai/toolbridge/pkg/middleware"
	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/providers/ollama"
	"github.com/kestrel-ai/toolbridge/pkg/schema"
	"github.com/kestrel-ai/toolbridge/pkg/surface"
	"github.com/kestrel-ai/toolbridge/pkg/telemetry"
)

var model provider.LanguageModel

func main() {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	modelID := os.Getenv("OLLAMA_MODEL")
	if modelID == "" {
		modelID = "llama3"
	}

	p := middleware.WrapProvider(ollama.New(ollama.Config{BaseURL: baseURL}), []*middleware.LanguageModelMiddleware{
		buildToolCallMiddleware(),
	})

	var err error
	model, err = p.LanguageModel(modelID)
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(corsMiddleware())
	r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(5), 10)))

	r.GET("/", handleRoot)
	r.GET("/health", handleHealth)
	r.POST("/generate", handleGenerate)
	r.POST("/stream", handleStream)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("demo-gin listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// buildToolCallMiddleware wires a single demo tool (get_weather) through the
// JsonTagged surface protocol, with tracing enabled.
func buildToolCallMiddleware() *middleware.LanguageModelMiddleware {
	tools := []types.ToolDefinition{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: schema.New(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{
						"type":        "string",
						"description": "City and state, e.g. San Francisco, CA",
					},
					"unit": map[string]interface{}{
						"type": "string",
						"enum": []string{"celsius", "fahrenheit"},
					},
				},
				"required": []string{"location"},
			}),
		},
	}

	protocol, err := surface.NewJsonTagged(tools, surface.DefaultJsonTaggedOptions())
	if err != nil {
		log.Fatalf("building tool-call protocol: %v", err)
	}

	mw, err := middleware.NewToolCallMiddleware(middleware.ToolCallMiddlewareOptions{
		Protocol:  protocol,
		Tools:     tools,
		Telemetry: telemetry.DefaultSettings().WithEnabled(true),
	})
	if err != nil {
		log.Fatalf("building tool-call middleware: %v", err)
	}
	return mw
}

func handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "toolbridge demo (gin)",
		"endpoints": []gin.H{
			{"method": "POST", "path": "/generate", "description": "batch generate"},
			{"method": "POST", "path": "/stream", "description": "SSE stream"},
			{"method": "GET", "path": "/health", "description": "health check"},
		},
	})
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"model":  model.ModelID(),
	})
}

type generateRequest struct {
	Message     string   `json:"message" binding:"required"`
	System      string   `json:"system"`
	Temperature *float64 `json:"temperature"`
}

func handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := model.DoGenerate(ctx, &provider.GenerateOptions{
		Prompt:      types.Prompt{System: req.System, Text: req.Message},
		Temperature: req.Temperature,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": result.Content,
		"usage":   result.Usage,
	})
}

type streamRequest struct {
	Message string `json:"message" binding:"required"`
	System  string `json:"system"`
}

func handleStream(c *gin.Context) {
	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	stream, err := model.DoStream(ctx, &provider.GenerateOptions{
		Prompt: types.Prompt{System: req.System, Text: req.Message},
	})
	if err != nil {
		sendSSE(c.Writer, "error", err.Error())
		return
	}
	defer stream.Close()

	for {
		part, err := stream.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sendSSE(c.Writer, "error", err.Error())
			}
			break
		}
		sendSSEPart(c.Writer, part)
		c.Writer.Flush()
	}
}

func sendSSEPart(w http.ResponseWriter, part *provider.StreamPart) {
	switch part.Kind {
	case provider.PartKindTextDelta:
		sendSSE(w, "text", part.Delta)
	case provider.PartKindToolCall:
		sendSSE(w, "tool_call", fmt.Sprintf(`{"name":%q,"arguments":%s}`, part.ToolName, part.Input))
	case provider.PartKindFinish:
		sendSSE(w, "done", "")
	}
}

func sendSSE(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware throttles requests with a shared token bucket,
// returning 429 once the burst is exhausted.
func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
