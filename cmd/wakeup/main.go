package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Pokes the hosted backend until it spins up from its idle sleep. Render
// scales the free tier to zero, so the first request after a quiet period
// can take 30-60 seconds.
func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("RAG_BASE_URL")
	if baseURL == "" {
		baseURL = "https://cellexis-wlgs.onrender.com"
	}

	color.Cyan("Attempting to wake up backend at %s...", baseURL)

	client := &http.Client{Timeout: 30 * time.Second}
	endpoints := []string{"/", "/pingdb", "/search-stats"}

	for _, endpoint := range endpoints {
		fmt.Printf("Trying %s...\n", endpoint)

		res, err := client.Get(baseURL + endpoint)
		if err != nil {
			color.Red("%s failed: %v", endpoint, err)
			continue
		}
		res.Body.Close()

		if res.StatusCode >= 200 && res.StatusCode < 300 {
			color.Green("Backend is awake! %s responded successfully.", endpoint)
			return
		}
		color.Yellow("%s returned status: %d", endpoint, res.StatusCode)
	}

	color.Red("Backend is still sleeping. Please wait 30-60 seconds and try again.")
	os.Exit(1)
}
