package server

import "github.com/harborwatch/harborwatch/models"

type assessRequest struct {
	Route string `json:"route"`
}

type chatRequest struct {
	Route       string            `json:"route"`
	Assessment  models.Assessment `json:"assessment"`
	History     []models.ChatTurn `json:"history"`
	UserMessage string            `json:"userMessage"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}
