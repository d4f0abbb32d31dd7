package web

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"wildfire/internal/grid"
	"wildfire/internal/models"
	"wildfire/internal/types"
	"wildfire/internal/view"
)

// PageView — данные шаблона страницы
type PageView struct {
	Title       string
	Description string
	Variant     string
	Rows        [][]grid.Cell
	Message     template.HTML
}

// MessageView — ответ /view/message
type MessageView struct {
	types.MessageState
	HTML template.HTML `json:"html"`
}

// HandlePage отрисовывает страницу и монтирует представление при первом посещении
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	v := s.openView(w, r)
	v.Mount(r.Context())

	page := PageView{
		Title:       s.opts.Title,
		Description: s.opts.Description,
		Variant:     s.opts.Grid.Variant().String(),
		Rows:        s.opts.Grid.Cells(s.opts.Shader),
		Message:     s.messages.render(v.Message()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "page", page); err != nil {
		log.Printf("Ошибка отрисовки страницы: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// HandleUpdate — нажатие кнопки Update
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	v := s.openView(w, r)
	v.Click(r.Context())

	if wantsJSON(r) {
		writeJSON(w, http.StatusAccepted, s.messageView(v))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMessage отдает текущее сообщение представления
func (s *Server) HandleMessage(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		SendErrorResponse(w, http.StatusNotFound, "View not found")
		return
	}
	v, ok := s.registry.Get(cookie.Value)
	if !ok {
		SendErrorResponse(w, http.StatusNotFound, "View not found")
		return
	}
	writeJSON(w, http.StatusOK, s.messageView(v))
}

// HandleDiagnostics отдает последние обращения к шлюзу
func (s *Server) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.opts.Journal == nil {
		SendErrorResponse(w, http.StatusNotFound, "Diagnostics journal is disabled")
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	exchanges, err := s.opts.Journal.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("Ошибка чтения журнала диагностики: %v", err)
		SendErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve diagnostics")
		return
	}
	writeJSON(w, http.StatusOK, models.ExchangeList{Exchanges: exchanges})
}

func (s *Server) openView(w http.ResponseWriter, r *http.Request) *view.View {
	var id string
	if cookie, err := r.Cookie(CookieName); err == nil {
		id = cookie.Value
	}

	v, created := s.registry.Open(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    v.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return v
}

func (s *Server) messageView(v *view.View) MessageView {
	message := v.Message()
	return MessageView{
		MessageState: types.MessageState{Message: message},
		HTML:         s.messages.render(message),
	}
}

// SendErrorResponse отправляет JSON с ошибкой
func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	num, err := strconv.Atoi(val)
	if err != nil || num < 1 {
		return fallback
	}
	return num
}
