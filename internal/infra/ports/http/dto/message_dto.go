package dto

import "github.com/chatflow/chatflow/internal/domain/models"

type AppendMessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type ListMessagesResponse struct {
	Messages []models.Message `json:"messages"`
}
