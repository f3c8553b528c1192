package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethanbaker/copilot/internal/copilot"
	"github.com/ethanbaker/copilot/pkg/broadcast"
	"github.com/ethanbaker/copilot/pkg/generator"
	"github.com/ethanbaker/copilot/pkg/knowledge"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/ethanbaker/copilot/pkg/session"
	"github.com/ethanbaker/copilot/pkg/utils"
)

func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	if cfg.Get("OPENAI_API_KEY") == "" {
		log.Fatal("[COMMANDLINE]: OPENAI_API_KEY must be set")
	}

	// Everything runs in memory; nothing outlives the process
	provider := generator.NewOpenAIProvider(
		cfg.Get("OPENAI_API_KEY"),
		cfg.GetWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
	)

	sessions := session.NewInMemoryStore()
	memories := memory.NewInMemoryStore()
	resumes := resume.NewInMemoryStore()

	gen := generator.New(provider, memories, resumes, knowledge.NewInMemoryStore(), nil)
	service := copilot.NewService(sessions, memories, resumes, gen, broadcast.NewHub(0), nil)
	defer service.Stop()

	if err := startInteractiveSession(context.Background(), service); err != nil {
		log.Fatalf("Failed to start interactive session: %v", err)
	}
}

// startInteractiveSession initializes the command line interface for the copilot
func startInteractiveSession(ctx context.Context, service *copilot.Service) error {
	fmt.Println("Interview copilot started. Type captions as the interviewer; 'exit' to quit.")

	// Create a single session on startup for the entire conversation
	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "commandline-user"})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Printf("Session created: %s\n", sess.ID)

	// Create scanner for reading user input
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "exit" {
			break
		}

		if input == "" {
			continue
		}

		// Attach resume text with 'resume: <text>'
		if text, ok := strings.CutPrefix(input, "resume:"); ok {
			if err := service.SetResume(ctx, sess.ID, strings.TrimSpace(text)); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("Resume stored.")
			}
			continue
		}

		// Ingest the line as an interviewer caption
		_, detection, err := service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		if !detection.IsQuestion {
			fmt.Println("(noted as context)")
			continue
		}

		fmt.Printf("(question detected: %s, confidence %.1f)\n", detection.Type, detection.Confidence)

		// Wait for the generated answer and print the latest one
		service.WaitForGenerations()

		answers, err := service.Answers(ctx, sess.ID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if len(answers) == 0 {
			fmt.Println("No answer generated.")
			continue
		}

		latest := answers[len(answers)-1]
		fmt.Printf("Copilot: %s\n", latest.AnswerText)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	if _, err := service.EndSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	return nil
}
