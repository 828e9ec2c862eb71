// Command demoserver starts a stand-in analysis server for local runs.
// Usage: go run ./cmd/demoserver [port]
// Default port: 8080
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/commentlens/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   commentlens demo analysis server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Every video answers pending %d times, then serves a canned analysis.\n", cfg.PendingResponses)
	fmt.Printf("Timeout videos (504): %v\n", cfg.TimeoutVideos)
	fmt.Printf("Crawl failures (404): %v\n", cfg.FailVideos)
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
