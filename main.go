package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/WS24/ws24dev-sub001/modules/api"
	"github.com/WS24/ws24dev-sub001/modules/evaluation"
	"github.com/WS24/ws24dev-sub001/modules/identity"
	"github.com/WS24/ws24dev-sub001/modules/invoice"
	"github.com/WS24/ws24dev-sub001/modules/ledger"
	"github.com/WS24/ws24dev-sub001/modules/notification"
	"github.com/WS24/ws24dev-sub001/modules/task"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== WS24Dev Task Lifecycle & Billing Engine ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	identityModule := identity.NewModule()
	ledgerModule := ledger.NewModule()
	evaluationModule := evaluation.NewModule()
	notificationModule := notification.NewModule()
	taskModule := task.NewModule()
	invoiceModule := invoice.NewModule()
	apiModule := api.NewModule()

	// The hub is shared directly because WebSocket connections cannot travel
	// over the service container.
	apiModule.SetHub(notificationModule.Hub())

	// Registration order: providers before their dependents.
	app.Register(identityModule)     // accounts and tokens
	app.Register(ledgerModule)       // append-only billing ledger
	app.Register(evaluationModule)   // pricing proposal store
	app.Register(notificationModule) // event consumer + WebSocket hub
	app.Register(taskModule)         // lifecycle engine (depends on ledger, evaluation)
	app.Register(invoiceModule)      // invoice generator (depends on ledger)
	app.Register(apiModule)          // HTTP/WebSocket surface

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API (http://localhost:%s):", port)
	log.Println("  POST   /api/v1/auth/register          - Create an account")
	log.Println("  POST   /api/v1/auth/login             - Obtain a token pair")
	log.Println("  POST   /api/v1/auth/refresh           - Rotate a token pair")
	log.Println("  POST   /api/v1/tasks                  - Create a task (client)")
	log.Println("  GET    /api/v1/tasks                  - List tasks (scoped to caller)")
	log.Println("  POST   /api/v1/tasks/:id/evaluations  - Submit a pricing proposal (specialist)")
	log.Println("  POST   /api/v1/evaluations/:id/accept - Accept a proposal (client)")
	log.Println("  POST   /api/v1/tasks/:id/pay          - Escrow the accepted cost (client)")
	log.Println("  POST   /api/v1/tasks/:id/start        - Begin work (specialist)")
	log.Println("  POST   /api/v1/tasks/:id/complete     - Finish work and settle (specialist)")
	log.Println("  POST   /api/v1/tasks/:id/cancel       - Cancel, refunding escrow if funded")
	log.Println("  GET    /api/v1/balance                - Derived balance")
	log.Println("  GET    /api/v1/statement              - Ledger entry history")
	log.Println("  POST   /api/v1/invoices               - Issue an invoice for a settled payment")
	log.Println("")
	log.Printf("WebSocket notifications: ws://localhost:%s/ws/notifications?token=<access token>", port)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
