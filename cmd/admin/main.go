package main

import (
	"fmt"
	"log"
	"os"

	"lawchat/backend/internal/config"
	"lawchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Small ops CLI over the storage layer: inspect and close chat sessions
// without going through the running server.
func main() {
	godotenv.Load()
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil, cfg.HistoryCap) // No redis needed for the CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <sessions|history|close> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sessions":
		ids, err := storageSvc.GetActiveSessionIDs()
		if err != nil {
			log.Fatalf("Error listing sessions: %v", err)
		}
		if len(ids) == 0 {
			fmt.Println("No active sessions.")
			return
		}
		for _, id := range ids {
			session, err := storageSvc.GetSessionByID(id)
			if err != nil || session == nil {
				fmt.Printf("%s\n", id)
				continue
			}
			fmt.Printf("%s  started=%s  participants=%v\n",
				session.SessionID, session.StartedAt.Format("2006-01-02 15:04:05"), []string(session.Participants))
		}

	case "history":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin history <session_id>")
			os.Exit(1)
		}
		history, err := storageSvc.GetSessionHistory(os.Args[2])
		if err != nil {
			log.Fatalf("Error reading history: %v", err)
		}
		for _, msg := range history {
			fmt.Printf("[%s] %s/%s: %s\n",
				msg.Timestamp.Format("15:04:05"), msg.SenderType, msg.SenderID, msg.Content)
		}

	case "close":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close <session_id>")
			os.Exit(1)
		}
		if err := storageSvc.CloseSession(os.Args[2]); err != nil {
			log.Fatalf("Error closing session: %v", err)
		}
		fmt.Printf("Session %s closed.\n", os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}
