package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
	benchKey = "bench-key-12345"
)

var (
	modelsResp = []byte(`{"object":"list","data":[{"id":"bench/model","context_window":32000}]}`)
	unaryResp  = []byte(`{"id":"bench-123","object":"chat.completion","created":1700000000,"model":"chutes-default","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hello"}}]}`)
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	target := flag.String("target", "chat", "Endpoint to attack: chat, models or status")
	flag.Parse()

	go startMockServer()

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0o644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		"CONFIG_FILE="+configFile,
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		"CHUTES_API_KEY=mock-key",
		"LOG_LEVEL=error",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	targeter, err := newTargeter(*target)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", *target, *duration, *rate)

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5):")
		for i, msg := range metrics.Errors {
			if i == 5 {
				break
			}
			fmt.Println(msg)
		}
	}
}

func newTargeter(name string) (vegeta.Targeter, error) {
	base := fmt.Sprintf("http://localhost:%d", appPort)
	header := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer " + benchKey},
	}

	var t vegeta.Target
	switch name {
	case "chat":
		t = vegeta.Target{
			Method: http.MethodPost,
			URL:    base + "/v1/chat/completions",
			Body:   []byte(`{"provider":"Chutes","model":"chutes-default","messages":[{"role":"user","content":"Hello"}]}`),
			Header: header,
		}
	case "models":
		t = vegeta.Target{Method: http.MethodGet, URL: base + "/v1/models?provider=chutes", Header: header}
	case "status":
		t = vegeta.Target{Method: http.MethodGet, URL: base + "/v1/providers/chutes/status", Header: header}
	default:
		return nil, fmt.Errorf("unknown target %q", name)
	}

	return vegeta.NewStaticTargeter(t), nil
}

// startMockServer stands in for the Chutes API and status page.
func startMockServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(modelsResp)
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(unaryResp)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: development
  api_keys: ["%s"]
rate_limit:
  enabled: false
  requests_per_second: 100000
  burst: 100000
log:
  level: "error"
providers:
  chutes:
    enabled: true
    base_url: "http://localhost:%d"
    status_url: "http://localhost:%d/"
    timeout: 5s
`, appPort, benchKey, mockPort, mockPort)
