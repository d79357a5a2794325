package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

type fetchRequest struct {
	URL string `json:"url"`
}

// Validate 校验请求参数
func (r fetchRequest) Validate() error {
	return validation.Validate(r.URL, validation.Required.Error("URL is required"))
}

type fetchResponse struct {
	Success     bool   `json:"success"`
	Content     string `json:"content"`
	Title       string `json:"title"`
	OriginalURL string `json:"originalUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	req, err := decodeFetchRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	page, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		log.Error("Error fetching URL", zap.String("url", req.URL), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Failed to fetch content: " + err.Error(),
		})
		return
	}

	result, err := s.transformer.Transform(page.Body)
	if err != nil {
		log.Error("Error transforming content", zap.String("url", req.URL), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Failed to transform content: " + err.Error(),
		})
		return
	}

	log.Info("page transformed",
		zap.String("url", req.URL),
		zap.String("title", result.Title),
		zap.Int("replacements", result.Replacements),
		zap.Bool("skipped", result.Skipped))

	writeJSON(w, http.StatusOK, fetchResponse{
		Success:     true,
		Content:     result.HTML,
		Title:       result.Title,
		OriginalURL: req.URL,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeFetchRequest 支持 JSON、urlencoded 表单和 multipart 表单请求体，空请求体视为空参数
func decodeFetchRequest(w http.ResponseWriter, r *http.Request) (fetchRequest, error) {
	var req fetchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.URL = r.PostFormValue("url")
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
			return req, err
		}
		req.URL = r.PostFormValue("url")
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return req, err
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return req, err
			}
		}
	}

	req.URL = strings.TrimSpace(req.URL)
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
