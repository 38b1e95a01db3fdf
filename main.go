package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Dongshan-Salmon/webgame/config"
	"github.com/Dongshan-Salmon/webgame/crypto"
	"github.com/Dongshan-Salmon/webgame/game"
	"github.com/Dongshan-Salmon/webgame/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin"},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Couldn't parse environment: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	if cfg.GinMode != gin.ReleaseMode {
		logger.EnableDebug()
	}

	// Dependencies
	store := game.NewStore()
	codes := game.NewIdGen(rand.New(rand.NewSource(time.Now().UnixNano())))
	hasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	service := game.NewService(store, codes, hasher, rng)
	gameHandler := game.NewGameHandler(service)

	r := CreateServer(cfg.AllowedOrigins)
	gameHandler.RegisterRoutes(r)

	tickerGen := game.NewTickerGen()
	sweeper := game.NewSweeper(store, codes, &tickerGen,
		cfg.SweepInterval, cfg.DisconnectTimeout, cfg.LobbyKickTimeout, cfg.RoomMaxAge)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	logger.Infof("Listening on port %d", cfg.Port)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatalf("Couldn't start server: %v", err)
	}
}
