// Package stub — локальная замена шлюза бэкенда для разработки.
// Реализует только контракт /api/hello и /api/post-data.
package stub

import (
	"log"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"wildfire/internal/types"
)

const (
	HelloMessage    = "Hello from the evacuation backend!"
	ReceivedMessage = "Data received successfully!"
)

type postDataResponse struct {
	Message string        `json:"message"`
	Data    types.Payload `json:"data"`
}

// Handler обрабатывает запросы к заглушке шлюза
func Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/api/hello":
		if !ctx.IsGet() {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		message := HelloMessage
		writeJSON(ctx, fasthttp.StatusOK, types.MessageResponse{Message: &message})
	case "/api/post-data":
		if !ctx.IsPost() {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		handlePostData(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func handlePostData(ctx *fasthttp.RequestCtx) {
	var data types.Payload
	if err := json.Unmarshal(ctx.PostBody(), &data); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !data.Rectangular() {
		writeError(ctx, fasthttp.StatusBadRequest, "Grid must be a non-empty rectangle")
		return
	}

	log.Printf("Заглушка шлюза: получена сетка %dx%d", len(data), len(data[0]))
	writeJSON(ctx, fasthttp.StatusOK, postDataResponse{Message: ReceivedMessage, Data: data})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, types.ErrorResponse{Error: message})
}
