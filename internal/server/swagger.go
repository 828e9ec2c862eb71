package server

//go:generate swag init -g internal/server/swagger.go -o docs/swagger

// @title commentlens relay API
// @version 0.1
// @description Relay between UI surfaces and the comment-analysis poller.
// @contact.name commentlens maintainers
// @contact.url https://github.com/raysh454/commentlens
// @BasePath /
