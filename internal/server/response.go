package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/KaramelBytes/pubsift-cli/internal/chat"
	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// BaseResponse is the JSON envelope of every endpoint.
type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func successResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{Success: true, Message: message, Data: data}
}

// TableDTO is a table as JSON.
type TableDTO struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// toTableDTO includes at most limit rows; limit <= 0 includes every row.
func toTableDTO(t *table.Table, limit int) *TableDTO {
	if t == nil {
		return nil
	}
	shown := t
	if limit > 0 {
		shown = t.Head(limit)
	}
	rows := make([][]string, shown.NumRows())
	for i := range rows {
		rows[i] = shown.Row(i)
	}
	return &TableDTO{Columns: t.Columns(), Rows: rows, TotalRows: t.NumRows()}
}

// ReplyDTO is a chat answer.
type ReplyDTO struct {
	Intent chat.Intent `json:"intent"`
	Text   string      `json:"text"`
	Table  *TableDTO   `json:"table,omitempty"`
}

// TurnDTO is one chat log entry.
type TurnDTO struct {
	Role  chat.Role `json:"role"`
	Text  string    `json:"text,omitempty"`
	Table *TableDTO `json:"table,omitempty"`
	At    string    `json:"at"`
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Error(err),
			)
		}
		return ctx.Status(code).JSON(BaseResponse[any]{Success: false, Message: err.Error()})
	}
}
