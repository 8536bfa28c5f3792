package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/playdex/playdex-chat/internal/adapters/classifier"
	httpadapter "github.com/playdex/playdex-chat/internal/adapters/http"
	"github.com/playdex/playdex-chat/internal/adapters/keystore"
	"github.com/playdex/playdex-chat/internal/adapters/llm"
	firestorestore "github.com/playdex/playdex-chat/internal/adapters/storage/firestore"
	memstore "github.com/playdex/playdex-chat/internal/adapters/storage/memory"
	sqlitestore "github.com/playdex/playdex-chat/internal/adapters/storage/sqlite"
	"github.com/playdex/playdex-chat/internal/app/gate"
	"github.com/playdex/playdex-chat/internal/app/session"
	"github.com/playdex/playdex-chat/internal/app/turn"
	"github.com/playdex/playdex-chat/internal/config"
	"github.com/playdex/playdex-chat/internal/crypto"
	"github.com/playdex/playdex-chat/internal/domain"
)

func main() {
	ctx := context.Background()

	// .env is optional, env vars win.
	_ = godotenv.Load()
	cfg := config.Load()

	// Message-body encryption key lives in the per-user secret store.
	ks, err := keystore.NewFileStore(cfg.SecretsDir)
	if err != nil {
		log.Fatalf("error opening key store: %v", err)
	}
	cipher, err := crypto.NewBodyCipher(ks)
	if err != nil {
		log.Fatalf("error initializing body cipher: %v", err)
	}

	// Storage: sqlite (default), firestore, or memory
	var roomStore domain.RoomStore
	var messageStore domain.MessageStore

	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cipher)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 2 interfaces
		roomStore = fsStore
		messageStore = fsStore

	case "memory":
		log.Println("[STORE] Using in-memory storage")
		roomStore = memstore.NewRoomStore()
		messageStore = memstore.NewMessageStore()

	default:
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		sqlStore, err := sqlitestore.New(cfg.SQLitePath, cipher)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		roomStore = sqlStore
		messageStore = sqlStore
	}

	// Remote answer service: mock or Vertex by ENV (useful for dev)
	var answerClient domain.AnswerClient
	answerEndpoint := cfg.AnswerModel

	if cfg.UseMockAnswer {
		log.Println("[ANSWER] Using MOCK answer client")
		answerClient = llm.NewMockAnswerClient()
	} else {
		log.Println("[ANSWER] Using Vertex answer client")
		answerClient, err = llm.NewGeminiClient(ctx, cfg.AnswerModel)
		if err != nil {
			log.Fatalf("error initializing Vertex answer client: %v", err)
		}
	}

	// Classifiers are optional; the gate fails closed without one.
	var gateClassifier domain.Classifier
	if cfg.GateClassifierURL != "" {
		gateClassifier = classifier.New(cfg.GateClassifierURL)
	}
	var intentClassifier domain.Classifier
	if cfg.IntentClassifierURL != "" {
		intentClassifier = classifier.New(cfg.IntentClassifierURL)
	}

	admissionGate := gate.New(gateClassifier, gate.WithThreshold(cfg.GateThreshold))
	coordinator := session.NewCoordinator()

	svc := turn.NewService(
		roomStore,
		messageStore,
		answerClient,
		intentClassifier,
		admissionGate,
		coordinator,
		turn.Options{
			AnswerEndpoint:      answerEndpoint,
			IntentMinConfidence: cfg.IntentMinConfidence,
			ContextSummary:      cfg.ContextSummary,
			ContextSummaryMsgs:  cfg.ContextSummaryMsgs,
		},
	)

	handler := httpadapter.NewServer(svc)

	port := ":" + cfg.Port
	log.Println("Playdex chat API listening on port:", port)
	if err := http.ListenAndServe(port, handler); err != nil {
		log.Fatal(err)
	}
}
