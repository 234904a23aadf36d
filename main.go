package main

import (
	"net/http"
	"os"

	"ChatGate/config"
	"ChatGate/data/database/pg"
	"ChatGate/logger"
	mid "ChatGate/middleware"
	midsec "ChatGate/middleware/security"
	chatmod "ChatGate/module/chat"
	"ChatGate/module/user"
	chat "ChatGate/service/chat"
	rds "ChatGate/service/storage/redis"
	"ChatGate/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}

	if err := pg.InitPG(cfg.PG.ConnString()); err != nil {
		logger.Errorf("postgres init: %v", err)
		os.Exit(1)
	}
	defer pg.ClosePG()

	if cfg.Redis.Addr != "" {
		if err := rds.InitRedis(rds.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}); err != nil {
			logger.Errorf("redis init: %v", err)
			os.Exit(1)
		}
		defer func() { _ = rds.CloseRedis() }()
	}

	jwtOpts := security.Options{
		Secret: []byte(cfg.Auth.Secret),
		Alg:    cfg.Auth.Alg,
		TTL:    cfg.Auth.TTL,
	}
	mid.ConfigAuth(midsec.DefaultOptions(jwtOpts))

	userStore := user.NewStore(pg.GetPool())
	msgStore := chatmod.NewStore(pg.GetPool())

	registry := chat.NewRegistry()
	router := chat.NewRouter(registry)
	ws := chat.NewServer(registry, router, msgStore, &user.Resolver{Opts: jwtOpts, Store: userStore}, chat.ServerConf{
		ReadLimit:     cfg.WS.ReadLimit,
		WriteDeadline: cfg.WS.WriteDeadline,
		PresenceTTL:   cfg.Redis.Presence,
	})

	userHandler := user.NewHandler(userStore, jwtOpts)
	chatHandler := chatmod.NewHandler(msgStore, userStore, router)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	mid.POST(api, "/auth/register", userHandler.HandlerRegister, mid.RouteOpt{IsAuth: false})
	mid.POST(api, "/auth/login", userHandler.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.GET(api, "/users/me", userHandler.HandlerMe, mid.RouteOpt{IsAuth: true})
	mid.POST(api, "/messages/dm", chatHandler.HandlerSendDM, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/messages/dm/:other_user_id", chatHandler.HandlerHistory, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/messages/conversations", chatHandler.HandlerConversations, mid.RouteOpt{IsAuth: true})

	r.GET("/ws/chat", ws.HandleWS) // ws://host/ws/chat?token=<jwt>

	logger.Infof("[HTTP] Listening on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Errorf("HTTP server failed: %v", err)
		os.Exit(1)
	}
}
