// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"universal-extractor/internal/formatters"
	"universal-extractor/internal/observability"
	"universal-extractor/internal/paths"
	"universal-extractor/internal/preprocessors"
	"universal-extractor/internal/validators"
	"universal-extractor/internal/version"

	// Import formatters to register them
	_ "universal-extractor/internal/formatters/csv"
	_ "universal-extractor/internal/formatters/json"
	_ "universal-extractor/internal/formatters/text"
	_ "universal-extractor/internal/formatters/yaml"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxUploadSize bounds a single uploaded document
const maxUploadSize = 100 << 20

// WebServer represents the web server instance
type WebServer struct {
	port      string
	maxUpload int64
	server    *http.Server
	catalog   *validators.Catalog
	reader    *preprocessors.TextPreprocessor
	extractor *validators.Extractor
	observer  *observability.StandardObserver
}

// ExtractResponse is the JSON body of POST /extract
type ExtractResponse struct {
	Success    bool                        `json:"success"`
	Source     string                      `json:"source,omitempty"`
	Definition string                      `json:"definition,omitempty"`
	Count      int                         `json:"count"`
	Matches    []string                    `json:"matches"`
	Document   *preprocessors.DocumentInfo `json:"document,omitempty"`
	Message    string                      `json:"message,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

// DefinitionResponse describes one catalog entry
type DefinitionResponse struct {
	Name        string `json:"name"`
	FileName    string `json:"file_name"`
	Pattern     string `json:"pattern"`
	IgnoreCase  bool   `json:"ignore_case"`
	Multiline   bool   `json:"multiline"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, catalog *validators.Catalog, reader *preprocessors.TextPreprocessor, extractor *validators.Extractor, observer *observability.StandardObserver) *WebServer {
	if catalog == nil {
		catalog = validators.Builtins()
	}
	if reader == nil {
		reader = preprocessors.NewTextPreprocessor(preprocessors.Options{})
	}
	if extractor == nil {
		extractor = validators.NewExtractor(0)
	}
	return &WebServer{
		port:      port,
		maxUpload: maxUploadSize,
		catalog:   catalog,
		reader:    reader,
		extractor: extractor,
		observer:  observer,
	}
}

// Routes returns the HTTP handler with all endpoints mounted
func (ws *WebServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", ws.handleHealth)
	r.Get("/formats", ws.handleFormats)
	r.Route("/definitions", func(r chi.Router) {
		r.Get("/", ws.handleDefinitions)
		r.Get("/{name}", ws.handleDefinition)
	})
	r.Post("/extract", ws.handleExtract)
	return r
}

// Start starts the web server, trying up to ten consecutive ports
func (ws *WebServer) Start() error {
	basePort, err := strconv.Atoi(ws.port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", ws.port, err)
	}

	var lastError error
	for i := 0; i < 10; i++ {
		currentPort := strconv.Itoa(basePort + i)

		listener, err := net.Listen("tcp", ":"+currentPort)
		if err != nil {
			lastError = err
			if i == 0 {
				fmt.Printf("Port %s is not available, trying alternative ports...\n", currentPort)
			}
			continue // Port is busy, try next one
		}

		ws.server = ws.createSecureServer(currentPort)
		fmt.Printf("Universal Extractor web API started on port %s\n", currentPort)
		fmt.Printf("Local:     http://localhost:%s\n", currentPort)

		if err := ws.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server on port %s failed: %w", currentPort, err)
		}
		return nil
	}

	return fmt.Errorf("could not find an available port in range %d-%d\n"+
		"Last error: %v\n"+
		"Troubleshooting: try a specific port with --port <number>", basePort, basePort+9, lastError)
}

// Shutdown gracefully stops the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server != nil {
		return ws.server.Shutdown(ctx)
	}
	return nil
}

// createSecureServer creates an HTTP server with security timeouts
func (ws *WebServer) createSecureServer(port string) *http.Server {
	return &http.Server{
		Addr:    ":" + port,
		Handler: ws.Routes(),
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		// Uploads of large PDFs need longer than headers
		ReadTimeout: 60 * time.Second,
		// Extraction runs before the response is written
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// handleHealth provides a health check endpoint with version information
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Full()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "universal-extractor",
		"version":      versionInfo["version"],
		"definitions":  len(ws.catalog.All()),
		"capabilities": version.Capabilities(len(ws.catalog.All()), preprocessors.SupportedExtensions()),
		"build_info": map[string]interface{}{
			"commit":     versionInfo["commit"],
			"build_date": versionInfo["buildDate"],
			"go_version": versionInfo["goVersion"],
			"platform":   versionInfo["platform"],
		},
	})
}

// handleFormats lists accepted document extensions and output formats
func (ws *WebServer) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"extensions": preprocessors.SupportedExtensions(),
		"outputs":    formatters.List(),
	})
}

// handleDefinitions lists the catalog in declaration order
func (ws *WebServer) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	defs := ws.catalog.All()
	response := make([]DefinitionResponse, 0, len(defs))
	for _, def := range defs {
		response = append(response, describeDefinition(def))
	}
	writeJSON(w, http.StatusOK, response)
}

func (ws *WebServer) handleDefinition(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		ws.sendError(w, "Invalid definition name")
		return
	}
	def, err := ws.catalog.Lookup(name)
	if err != nil {
		ws.sendErrorWithStatus(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, describeDefinition(def))
}

func describeDefinition(def *validators.Definition) DefinitionResponse {
	return DefinitionResponse{
		Name:        def.Name(),
		FileName:    def.FileName(),
		Pattern:     def.Pattern(),
		IgnoreCase:  def.Options().IgnoreCase,
		Multiline:   def.Options().Multiline,
		Description: def.Description(),
		Builtin:     def.Builtin(),
	}
}

// handleExtract reads an uploaded document and applies one definition.
// Form fields: file (required), definition (required), format (optional: json, text, csv, yaml).
func (ws *WebServer) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.maxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ws.sendErrorWithStatus(w, "Upload exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		ws.sendError(w, "Failed to parse form data")
		return
	}

	def, err := ws.catalog.Lookup(r.FormValue("definition"))
	if err != nil {
		ws.sendError(w, err.Error())
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = "json"
	}
	if _, ok := formatters.Get(format); !ok {
		ws.sendError(w, fmt.Sprintf("unsupported output format '%s'", sanitizeUserInput(format, 20)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ws.sendError(w, "No file uploaded")
		return
	}
	defer file.Close()

	matches, info, err := ws.extractUpload(r.Context(), file, header, def)
	if err != nil {
		ws.sendErrorWithStatus(w, err.Error(), statusForError(err))
		return
	}

	displayName := sanitizeUserInput(header.Filename, 255)
	if format != "json" {
		ws.sendFormatted(w, format, formatters.Result{Source: displayName, Definition: def.Name(), Matches: matches})
		return
	}

	response := ExtractResponse{
		Success:    true,
		Source:     displayName,
		Definition: def.Name(),
		Count:      len(matches),
		Matches:    matches,
		Document:   info,
	}
	if len(matches) == 0 {
		response.Message = "No matching data found."
	}
	writeJSON(w, http.StatusOK, response)
}

// extractUpload copies the upload to a temp file that keeps its extension, then reads and matches it
func (ws *WebServer) extractUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader, def *validators.Definition) ([]string, *preprocessors.DocumentInfo, error) {
	tempDir := paths.GetTempDir()
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create temporary directory %s: %w", tempDir, err)
	}

	tempPath := filepath.Join(tempDir, "upload-"+uuid.NewString()+getFileExtension(header.Filename))
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tempPath)

	// One byte past the limit tells a full upload from an oversized one
	copied, err := io.Copy(tempFile, io.LimitReader(file, ws.maxUpload+1))
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to copy file content: %w", err)
	}
	if copied > ws.maxUpload {
		return nil, nil, fmt.Errorf("upload exceeds %d bytes: %w", ws.maxUpload, preprocessors.ErrFileTooLarge)
	}

	text, err := ws.reader.ReadAsText(tempPath)
	if err != nil {
		return nil, nil, err
	}

	info := preprocessors.Describe(tempPath)
	info.Name = sanitizeUserInput(header.Filename, 255)

	matches, err := ws.extractor.Extract(ctx, def, text, header.Filename)
	if err != nil {
		return nil, nil, err
	}
	return matches, &info, nil
}

func (ws *WebServer) sendFormatted(w http.ResponseWriter, format string, result formatters.Result) {
	output, err := formatters.Export(format, []formatters.Result{result}, formatters.FormatterOptions{NoColor: true})
	if err != nil {
		ws.sendErrorWithStatus(w, fmt.Sprintf("Failed to format results: %v", err), http.StatusInternalServerError)
		return
	}
	info := formatters.GetFormatInfo(format)
	filename := formatters.SuggestedFileName(result.Source, result.Definition, info.Extension)

	w.Header().Set("Content-Type", info.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(output))
}

// statusForError maps the error taxonomy onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, preprocessors.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, preprocessors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, preprocessors.ErrMalformedContainer),
		errors.Is(err, validators.ErrMatchTimeout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, validators.ErrUnknownDefinition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getFileExtension extracts a sanitized extension, including the dot
func getFileExtension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" || len(ext) > 10 || !isAlphanumeric(ext) {
		return ".tmp"
	}
	return "." + strings.ToLower(ext)
}

// isAlphanumeric checks if string contains only alphanumeric characters
func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// sendError sends an error response with enhanced error information
func (ws *WebServer) sendError(w http.ResponseWriter, message string) {
	ws.sendErrorWithStatus(w, message, http.StatusBadRequest)
}

// sendErrorWithStatus sends an error response with a specific HTTP status code
func (ws *WebServer) sendErrorWithStatus(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ExtractResponse{
		Success: false,
		Matches: []string{},
		Error:   enhanceErrorMessage(message, statusCode),
	})
}

// enhanceErrorMessage adds troubleshooting information to error messages
func enhanceErrorMessage(message string, statusCode int) string {
	switch {
	case strings.Contains(message, "Failed to parse form data"):
		return message + "\nTroubleshooting: Upload the document as multipart/form-data in the 'file' field"
	case strings.Contains(message, "No file uploaded"):
		return message + "\nTroubleshooting: Add the document in the 'file' field"
	case statusCode == http.StatusUnsupportedMediaType:
		return message + "\nTroubleshooting: GET /formats lists the supported extensions"
	case strings.Contains(message, "unknown extraction definition"):
		return message + "\nTroubleshooting: GET /definitions lists the available names"
	case statusCode == http.StatusInternalServerError:
		return message + "\nTroubleshooting: Check server logs for detailed error information"
	default:
		return message
	}
}

// sanitizeUserInput removes dangerous characters from user input for safe output
func sanitizeUserInput(input string, maxLength int) string {
	sanitized := strings.Map(func(r rune) rune {
		// Remove control characters (0-31, 127)
		if r < 32 || r == 127 {
			return -1
		}
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1 // Remove HTML/XML special characters
		}
		return r
	}, input)

	// Limit length to prevent response bloat
	if len(sanitized) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
			cut--
		}
		sanitized = sanitized[:cut] + "..."
	}

	return sanitized
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
