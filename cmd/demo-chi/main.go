// Command demo-chi is a lean net/http-flavored counterpart to demo-gin,
// hosting the same wrapped Ollama model behind a chi router instead of gin.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

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

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Post("/generate", handleGenerate)
	r.Post("/stream", handleStream)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("demo-chi listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

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

func handleRoot(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service": "toolbridge demo (chi)",
		"endpoints": []string{
			"POST /generate",
			"POST /stream",
			"GET /health",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"model":  model.ModelID(),
	})
}

func handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message     string   `json:"message"`
		System      string   `json:"system"`
		Temperature *float64 `json:"temperature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := model.DoGenerate(ctx, &provider.GenerateOptions{
		Prompt:      types.Prompt{System: req.System, Text: req.Message},
		Temperature: req.Temperature,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"content": result.Content,
		"usage":   result.Usage,
	})
}

func handleStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		System  string `json:"system"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	stream, err := model.DoStream(ctx, &provider.GenerateOptions{
		Prompt: types.Prompt{System: req.System, Text: req.Message},
	})
	if err != nil {
		sendSSE(w, "error", err.Error())
		return
	}
	defer stream.Close()

	for {
		part, err := stream.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sendSSE(w, "error", err.Error())
			}
			break
		}
		sendSSEPart(w, part)
		flusher.Flush()
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
