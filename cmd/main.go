package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/typegrove/curricula-backend/internal/clients/openai"
	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/db"
	"github.com/typegrove/curricula-backend/internal/http/handlers"
	"github.com/typegrove/curricula-backend/internal/platform/envutil"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
	"github.com/typegrove/curricula-backend/internal/server"
	"github.com/typegrove/curricula-backend/internal/services/assign"
	"github.com/typegrove/curricula-backend/internal/services/conceptindex"
	"github.com/typegrove/curricula-backend/internal/services/synthesis"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	courseRepo := repos.NewCourseRepo(thePG, log)
	lessonRepo := repos.NewLessonRepo(thePG, log)
	conceptRepo := repos.NewConceptRepo(thePG, log)
	lessonConceptRepo := repos.NewLessonConceptRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// AI clients
	log.Info("Setting up AI clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	pineconeClient, err := pinecone.New(log, pinecone.Config{
		APIKey:     envutil.String("PINECONE_API_KEY", ""),
		APIVersion: envutil.String("PINECONE_API_VERSION", ""),
		BaseURL:    envutil.String("PINECONE_BASE_URL", ""),
		Timeout:    time.Duration(envutil.Int("PINECONE_TIMEOUT_SECONDS", 30)) * time.Second,
	})
	if err != nil {
		log.Error("Could not init PineconeClient", "error", err)
		os.Exit(1)
	}
	vectorStore, err := pinecone.NewVectorStore(log, pineconeClient)
	if err != nil {
		log.Error("Could not init Pinecone vector store", "error", err)
		os.Exit(1)
	}
	if err = assign.ValidateDimensions(openaiClient, vectorStore); err != nil {
		log.Error("Embedding dimension mismatch", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services from main...")
	assignStore := assign.NewAssignmentStore(thePG, lessonConceptRepo, log)
	assignService, err := assign.NewService(
		log,
		openaiClient,
		vectorStore,
		lessonRepo,
		assignStore,
		aiCallLogRepo,
		assign.ConfigFromEnv(),
	)
	if err != nil {
		log.Error("Could not init ConceptAssignService", "error", err)
		os.Exit(1)
	}
	indexService, err := conceptindex.NewService(log, openaiClient, vectorStore, conceptRepo)
	if err != nil {
		log.Error("Could not init ConceptIndexService", "error", err)
		os.Exit(1)
	}
	synthService, err := synthesis.NewService(log, openaiClient, vectorStore)
	if err != nil {
		log.Error("Could not init LessonSynthesisService", "error", err)
		os.Exit(1)
	}

	// Subcommands run one batch job and exit; the default serves HTTP.
	if len(os.Args) > 1 {
		os.Exit(runCommand(log, assignService, indexService, synthService, lessonRepo, os.Args[1:]))
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler()
	assignmentHandler := handlers.NewAssignmentHandler(log, assignService, courseRepo, lessonRepo, lessonConceptRepo, conceptRepo)
	conceptIndexHandler := handlers.NewConceptIndexHandler(log, indexService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		HealthHandler:       healthHandler,
		AssignmentHandler:   assignmentHandler,
		ConceptIndexHandler: conceptIndexHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func runCommand(
	log *logger.Logger,
	assignService *assign.Service,
	indexService *conceptindex.Service,
	synthService *synthesis.Service,
	lessonRepo repos.LessonRepo,
	args []string,
) int {
	ctx := context.Background()

	switch args[0] {
	case "assign-course":
		if len(args) < 2 {
			log.Error("usage: assign-course <course-id>")
			return 2
		}
		courseID, err := uuid.Parse(args[1])
		if err != nil {
			log.Error("Invalid course id", "error", err)
			return 2
		}
		summary, err := assignService.AssignForCourse(ctx, courseID)
		if err != nil {
			log.Error("Course assignment failed", "course_id", courseID, "error", err)
			return 1
		}
		log.Info("Course assignment complete",
			"course_id", summary.CourseID,
			"lessons_processed", summary.LessonsProcessed,
			"lessons_failed", summary.LessonsFailed,
			"concepts_assigned", summary.ConceptsAssigned,
			"total_cost_usd", summary.TotalCostUSD,
		)
		for _, f := range summary.Failures {
			log.Warn("Lesson failed", "lesson_id", f.LessonID, "reason", f.Reason)
		}
		if summary.LessonsFailed > 0 {
			return 1
		}
		return 0

	case "assign-lesson":
		if len(args) < 2 {
			log.Error("usage: assign-lesson <lesson-id>")
			return 2
		}
		lessonID, err := uuid.Parse(args[1])
		if err != nil {
			log.Error("Invalid lesson id", "error", err)
			return 2
		}
		lesson, err := lessonRepo.GetByID(ctx, nil, lessonID)
		if err != nil {
			log.Error("Could not load lesson", "lesson_id", lessonID, "error", err)
			return 1
		}
		if lesson == nil {
			log.Error("Lesson not found", "lesson_id", lessonID)
			return 1
		}
		res := assignService.AssignForLesson(ctx, lesson)
		if res.Err != nil {
			log.Error("Lesson assignment failed", "lesson_id", lessonID, "error", res.Err)
			return 1
		}
		log.Info("Lesson assignment complete",
			"lesson_id", res.LessonID,
			"assigned", res.Count,
			"cost_usd", res.CostUSD,
		)
		return 0

	case "synthesize-lesson":
		if len(args) < 2 {
			log.Error("usage: synthesize-lesson <lesson-id>")
			return 2
		}
		lessonID, err := uuid.Parse(args[1])
		if err != nil {
			log.Error("Invalid lesson id", "error", err)
			return 2
		}
		lesson, err := lessonRepo.GetByID(ctx, nil, lessonID)
		if err != nil {
			log.Error("Could not load lesson", "lesson_id", lessonID, "error", err)
			return 1
		}
		if lesson == nil {
			log.Error("Lesson not found", "lesson_id", lessonID)
			return 1
		}
		prose, err := synthService.SynthesizeLesson(ctx, lesson)
		if err != nil {
			log.Error("Lesson synthesis failed", "lesson_id", lessonID, "error", err)
			return 1
		}
		fmt.Println(prose)
		return 0

	case "index-concepts":
		summary, err := indexService.IndexAll(ctx, nil)
		if err != nil {
			log.Error("Concept indexing failed", "error", err)
			return 1
		}
		log.Info("Concept indexing complete",
			"concepts", summary.Concepts,
			"upserted", summary.Upserted,
		)
		return 0

	default:
		log.Error("Unknown command", "command", args[0])
		return 2
	}
}
