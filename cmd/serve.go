/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meriley/lingua-nexus/internal/auth"
	"github.com/meriley/lingua-nexus/internal/cache"
	"github.com/meriley/lingua-nexus/internal/config"
	"github.com/meriley/lingua-nexus/internal/controller"
	"github.com/meriley/lingua-nexus/internal/detector"
	"github.com/meriley/lingua-nexus/internal/httpapi"
	"github.com/meriley/lingua-nexus/internal/obslog"
	"github.com/meriley/lingua-nexus/internal/refiner"
	"github.com/meriley/lingua-nexus/internal/registry"
	"github.com/meriley/lingua-nexus/internal/store"
)

var serveConfigPath string

// serveCmd runs the adaptive translation core as a long-lived HTTP service
// (spec.md §6), the self-hosted counterpart to the one-shot file/CSV
// translation the rest of this CLI performs against a single configured
// service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the adaptive translation core as an HTTP service",
	Long: `Loads the backend registry, model registry, optimizer size cache and
optional translation-result cache from config, then serves spec.md §6's
HTTP surface (translate, translate/stream, health, languages, detect,
models) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := obslog.New(obslog.Config{Level: "info"})
		defer log.Sync()

		det := detector.New()

		regs, err := config.BuildRegistrations(cfg.Backends, det)
		if err != nil {
			return fmt.Errorf("build backend registrations: %w", err)
		}

		reg := registry.New(registry.Config{
			MemoryBudgetMB: cfg.Registry.MemoryBudgetMB,
			DrainGraceS:    cfg.Registry.DrainGraceS,
			Backoff: registry.Backoff{
				BaseS:  cfg.Registry.LoadBackoff.BaseS,
				Factor: cfg.Registry.LoadBackoff.Factor,
				MaxS:   cfg.Registry.LoadBackoff.MaxS,
			},
		}, regs)

		// Open the store before building the result cache: when available, its
		// kv_cache table backs a persistent result cache instead of the
		// in-memory LRU, so cached translations survive a restart.
		db, err := store.New(cfg.Cache.DBPath)
		if err != nil {
			log.Warn("glossary/translation-memory store unavailable, continuing without it", zap.Error(err))
		}

		var resultCache cache.Cache
		if cfg.Cache.ResultEnabled {
			if db != nil {
				resultCache = db.AsCache()
			} else {
				resultCache = cache.NewLRU(cfg.Cache.MaxEntries)
			}
		}
		sizeBacking := cache.NewLRU(cfg.Cache.MaxEntries)
		sizeCache := cache.NewSizeCache(sizeBacking, time.Duration(cfg.Cache.SizeTTLDays)*24*time.Hour)

		ctrlCfg := controller.DefaultConfig()
		ctrlCfg.HardTextCap = cfg.Request.HardTextCap
		ctrlCfg.DefaultMaxChunkSize = cfg.Chunker.DefaultMaxChunkSize
		ctrlCfg.OverallDeadline = time.Duration(cfg.Request.OverallDeadlineS) * time.Second

		ctrl := controller.New(ctrlCfg, reg, resultCache, sizeCache, log)

		if db != nil {
			defer db.Close()
			ctrl = ctrl.WithGlossary(db)
			if ollamaRefinerModel != "" {
				ctrl = ctrl.WithRefiner(refiner.NewOllamaRefiner(ollamaRefinerModel, ollamaRefinerURL))
			}
		}

		var extractor *auth.Extractor
		if cfg.Auth.JWTSecret != "" {
			extractor = auth.NewExtractor(cfg.Auth.JWTSecret)
		}
		var limiter *auth.Limiter
		if cfg.Auth.RateLimitRPS > 0 {
			limiter = auth.NewLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
		}

		server := httpapi.New(ctrl, reg, extractor, limiter, db, log)
		router := server.Router()

		log.Info("serving", zap.String("addr", cfg.Server.Addr))
		return http.ListenAndServe(cfg.Server.Addr, router)
	},
}

var (
	ollamaRefinerModel string
	ollamaRefinerURL   string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to config file (default searches ./.peretran.yaml, $HOME/.peretran.yaml)")
	serveCmd.Flags().StringVar(&ollamaRefinerModel, "refiner-model", "", "Ollama model used for optional Stage 2 literary refinement (empty disables refinement)")
	serveCmd.Flags().StringVar(&ollamaRefinerURL, "refiner-url", "http://localhost:11434", "Base URL of the Ollama server used for refinement")
}
