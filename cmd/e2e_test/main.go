package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

var (
	baseURL = "http://localhost:8080"
	client  *http.Client
)

func main() {
	if v := os.Getenv("BASE_URL"); v != "" {
		baseURL = v
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal(err)
	}
	client = &http.Client{Jar: jar, Timeout: 10 * time.Second}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Register and log in
	username := fmt.Sprintf("e2e-user-%d", time.Now().UnixNano())
	creds := map[string]string{"username": username, "password": "e2e-pass", "confirmation": "e2e-pass"}
	checkEndpoint("POST", "/api/register", creds, 201)
	checkEndpoint("POST", "/api/login", creds, 200)

	// 3. Quote
	checkEndpoint("GET", "/api/quote?symbol=AAPL", nil, 200)

	// 4. Buy, then sell part of it
	checkEndpoint("POST", "/api/buy", map[string]string{"symbol": "AAPL", "shares": "3"}, 201)
	checkEndpoint("POST", "/api/sell", map[string]string{"symbol": "AAPL", "shares": "1"}, 201)

	// 5. Rejections
	checkEndpoint("POST", "/api/sell", map[string]string{"symbol": "AAPL", "shares": "100"}, 403)
	checkEndpoint("POST", "/api/buy", map[string]string{"symbol": "AAPL", "shares": "0"}, 400)

	// 6. Top up
	checkEndpoint("POST", "/api/top-up", map[string]string{"top-up": "500"}, 200)

	// 7. Portfolio, history and valuations
	checkEndpoint("GET", "/api/portfolio", nil, 200)
	checkEndpoint("GET", "/api/history", nil, 200)
	checkEndpoint("GET", "/api/valuations", nil, 200)

	// 8. Logout ends the session
	checkEndpoint("POST", "/api/logout", nil, 200)
	checkEndpoint("GET", "/api/portfolio", nil, 401)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}
