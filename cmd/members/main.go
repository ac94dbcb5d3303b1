package main

import (
	"pustaka/internal/members/handler"
	"pustaka/internal/members/repository"
	"pustaka/internal/members/service"
	"pustaka/internal/members/validator"
	"pustaka/pkg/app"
	"pustaka/pkg/config"
)

const ServiceName = "members"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Members service")
	memberService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewMemberHandler(memberService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.MemberService {
	memberValidator := validator.NewMemberValidator(cfg.Log)
	memberRepo := repository.NewMongoMemberRepository(cfg)
	memberService := service.NewMemberService(
		memberRepo,
		memberValidator,
		cfg,
	)

	cfg.Log.Info("Member service initialized", "database", cfg.MongoDatabaseName)
	return memberService
}
