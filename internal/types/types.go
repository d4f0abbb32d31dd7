package types

// MessageResponse — ответ шлюза: {"message": "..."}.
// Message указателем, чтобы отличать отсутствующее поле от пустой строки.
type MessageResponse struct {
	Message *string `json:"message"`
}

// Payload — прямоугольная числовая сетка, отправляемая на /api/post-data
type Payload [][]int

// ErrorResponse — тело ответа с ошибкой для JSON-эндпоинтов
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageState — текущее сообщение представления для опроса со страницы
type MessageState struct {
	Message string `json:"message"`
}

// DefaultPayload возвращает новую копию фиксированной сетки 3x3
func DefaultPayload() Payload {
	return Payload{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
}

// Rectangular проверяет, что все строки сетки одной длины
func (p Payload) Rectangular() bool {
	if len(p) == 0 {
		return false
	}
	for _, row := range p {
		if len(row) != len(p[0]) {
			return false
		}
	}
	return true
}
