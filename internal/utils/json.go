package utils

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Json пишет v в ответ как JSON с заданным статусом.
func Json(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// Err пишет ошибку в формате {"error": "..."}.
func Err(w http.ResponseWriter, status int, err error) error {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	return Json(w, status, errorResponse{Error: msg})
}

// Html пишет готовый HTML-фрагмент или страницу.
func Html(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	return err
}
