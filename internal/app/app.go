package app

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/core"
	db "github.com/markdave123-py/Coverly/internal/core/database"
	"github.com/markdave123-py/Coverly/internal/core/ingestion_engine"
	"github.com/markdave123-py/Coverly/internal/core/llm"
	objectclient "github.com/markdave123-py/Coverly/internal/core/object-client"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
	"github.com/markdave123-py/Coverly/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	LLM          *llm.GeminiLLM
	Server       *Server
	log          *logger.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	a := &App{DBClient: dbClient, log: log}

	if cfg.ArchiveEnabled() {
		objClient, err := objectclient.NewS3Client(appCtx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ObjectClient = objClient
		log.Info("object client initialized and ready")
	} else {
		log.Info("BUCKET_NAME not set; raw uploads are not archived")
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, cfg.GenSystemPrompt, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}
	a.LLM = llmProvider
	if cfg.AIAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; users must supply their own key")
	}

	useReadability := false
	documentExtractor := ingestion_engine.NewDocconvExtractor(useReadability)
	batchIngestor := ingestion_engine.NewBatchIngestor(nil, log)

	templates := services.NewTemplateService(dbClient, documentExtractor, log)
	svc := &Services{
		Users:      services.NewUserService(dbClient, log),
		Companies:  services.NewCompanyService(dbClient, ingestion_engine.NewSheetDecoder(), batchIngestor, a.ObjectClient, cfg.BucketName, log),
		Sessions:   services.NewSessionService(dbClient, log),
		Templates:  templates,
		Generation: services.NewGenerationService(dbClient, llmProvider, templates, cfg.GenTimeout, log),
	}

	a.Server = NewServer(cfg, svc, log)
	return a, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
