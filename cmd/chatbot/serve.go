// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/sagemaker-chatbot/internal/config"
	"github.com/your-org/sagemaker-chatbot/internal/health"
)

const serviceVersion = "1.0.0"

// ChatRequest is the JSON body the chat front-end posts.
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chatbot HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runServer(cfg, logger)
		},
	}
}

func runServer(cfg *config.Config, logger *zap.Logger) error {
	application, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	maskedConfig := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded successfully",
		zap.String("service", "chatbot"),
		zap.String("openai_api_key", maskedConfig.OpenAI.APIKey),
		zap.String("index_path", cfg.Search.IndexPath),
		zap.String("pricing_db", cfg.Pricing.DBPath),
		zap.Int("port", cfg.Server.Port),
	)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.WatchConfig(configPath, func(updated *config.Config) {
		logger.Info("Configuration reloaded",
			zap.String("log_level", updated.Logging.Level),
		)
	}); err != nil {
		logger.Warn("Configuration hot reload unavailable", zap.Error(err))
	}

	healthManager := health.NewManager("chatbot", serviceVersion, logger)
	healthManager.AddChecker("pricing_db", health.DatabaseHealthChecker("pricing", application.store.Ping))
	healthManager.AddChecker("document_index", health.IndexHealthChecker(func(_ context.Context) error {
		_, err := application.index.DocCount()
		return err
	}))

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
	})

	router.GET("/readyz", func(c *gin.Context) {
		result := healthManager.Check(c.Request.Context())
		status := http.StatusOK
		if result.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	router.POST("/chat", func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query and session_id are required"})
			return
		}

		// Agent runs can take a while; give the whole request a generous
		// deadline instead of per-call timeouts.
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Server.RequestTimeout)
		defer cancel()

		result := application.controller.Handle(ctx, req.Query, req.SessionID)
		c.JSON(http.StatusOK, result)
	})

	router.DELETE("/sessions/:id", func(c *gin.Context) {
		if err := application.sessions.Reset(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting chatbot service", zap.String("addr", addr))
	return router.Run(addr)
}

// requestLogger logs each request with zap instead of gin's default writer.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
