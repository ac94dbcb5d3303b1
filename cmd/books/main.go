package main

import (
	"pustaka/internal/books/handler"
	"pustaka/internal/books/repository"
	"pustaka/internal/books/service"
	"pustaka/internal/books/validator"
	"pustaka/pkg/app"
	"pustaka/pkg/config"
)

const ServiceName = "books"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Books service")
	bookService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookHandler(bookService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookService {
	bookValidator := validator.NewBookValidator(cfg.Log)
	bookRepo := repository.NewMongoBookRepository(cfg)
	bookService := service.NewBookService(
		bookRepo,
		bookValidator,
		cfg,
	)

	cfg.Log.Info("Book service initialized", "database", cfg.MongoDatabaseName)
	return bookService
}
