package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv clears env vars used by parseConfig
func resetEnv() {
	os.Clearenv()
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	configPath := parseFlags()
	expected := "config.env"

	if configPath != expected {
		t.Errorf("expected %s, got %s", expected, configPath)
	}
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	configPath := parseFlags()
	expected := "myconfig.env"

	if configPath != expected {
		t.Errorf("expected %s, got %s", expected, configPath)
	}
}

func TestPrintBuildInfo_Output(t *testing.T) {
	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Set build info variables
	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2026-08-29"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()
	os.Stdout = oldStdout

	if !contains(output, "version v1.0.0") ||
		!contains(output, "commit abcd1234") ||
		!contains(output, "build 2026-08-29") {
		t.Errorf("printBuildInfo output unexpected:\n%s", output)
	}
}

// Helper function to check substring
func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		openWeatherAPIKey, rateLimitPerMinute,
		err := parseConfig("nonexistent.env")

	if err != nil {
		t.Fatalf("parseConfig returned error: %v", err)
	}

	// Application
	if appHost != "localhost" || appPort != "8080" || logLevel != "info" {
		t.Errorf("unexpected app config: %v/%v/%v", appHost, appPort, logLevel)
	}

	// PostgreSQL
	if pgHost != "localhost" || pgPort != 5432 || pgUser != "user" || pgPassword != "password" || pgDB != "database" ||
		pgMaxOpenConns != 16 || pgMaxIdleConns != 8 {
		t.Errorf("unexpected postgres config")
	}

	// Redis
	if redisHost != "localhost" || redisPort != 6379 || redisDB != 0 || redisPassword != "" {
		t.Errorf("unexpected redis config")
	}

	// Kafka
	if kafkaAddr != "" || kafkaTopic != "user_events" {
		t.Errorf("unexpected kafka config: %v/%v", kafkaAddr, kafkaTopic)
	}

	// Geocoding and rate limit
	if openWeatherAPIKey != "" || rateLimitPerMinute != 120 {
		t.Errorf("unexpected geocoding/rate limit config: %v/%v", openWeatherAPIKey, rateLimitPerMinute)
	}
}

func TestParseConfig_CustomEnv(t *testing.T) {
	resetEnv()
	os.Setenv("APP_HOST", "127.0.0.1")
	os.Setenv("APP_PORT", "9090")
	os.Setenv("APP_LOG_LEVEL", "debug")

	os.Setenv("POSTGRES_HOST", "pg.example.com")
	os.Setenv("POSTGRES_PORT", "5433")
	os.Setenv("POSTGRES_USER", "admin")
	os.Setenv("POSTGRES_PASSWORD", "secret")
	os.Setenv("POSTGRES_DB", "mydb")
	os.Setenv("POSTGRES_MAX_OPEN_CONNS", "20")
	os.Setenv("POSTGRES_MAX_IDLE_CONNS", "10")

	os.Setenv("REDIS_HOST", "redis.example.com")
	os.Setenv("REDIS_PORT", "6380")
	os.Setenv("REDIS_DB", "2")
	os.Setenv("REDIS_PASSWORD", "redispass")

	os.Setenv("KAFKA_ADDR", "kafka.example.com:9092")
	os.Setenv("KAFKA_TOPIC", "audit")

	os.Setenv("OPENWEATHER_API_KEY", "owm-key")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		openWeatherAPIKey, rateLimitPerMinute,
		err := parseConfig("nonexistent.env")

	if err != nil {
		t.Fatalf("parseConfig returned error: %v", err)
	}

	if appHost != "127.0.0.1" || appPort != "9090" || logLevel != "debug" {
		t.Errorf("unexpected app config")
	}
	if pgHost != "pg.example.com" || pgPort != 5433 || pgUser != "admin" || pgPassword != "secret" || pgDB != "mydb" ||
		pgMaxOpenConns != 20 || pgMaxIdleConns != 10 {
		t.Errorf("unexpected postgres config")
	}
	if redisHost != "redis.example.com" || redisPort != 6380 || redisDB != 2 || redisPassword != "redispass" {
		t.Errorf("unexpected redis config")
	}
	if kafkaAddr != "kafka.example.com:9092" || kafkaTopic != "audit" {
		t.Errorf("unexpected kafka config")
	}
	if openWeatherAPIKey != "owm-key" || rateLimitPerMinute != 30 {
		t.Errorf("unexpected geocoding/rate limit config")
	}
}

func TestParseConfig_InvalidNumber(t *testing.T) {
	resetEnv()
	os.Setenv("POSTGRES_PORT", "not-a-number")

	_, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, err := parseConfig("nonexistent.env")
	if err == nil {
		t.Fatal("expected error for non-numeric POSTGRES_PORT")
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	err := run(context.Background(),
		"127.0.0.1", "8086", "error",
		"localhost", 5432, "user", "password", "testdb",
		5, 2,
		"localhost", 6379, 0, "",
		"", "user_events",
		"", 120,
	)
	if err == nil {
		t.Fatal("expected run to fail without an API key")
	}
}

// ------------------ Full integration test ------------------
func TestRun_Success(t *testing.T) {
	ctx := context.Background()

	// ------------------ Postgres container ------------------
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "user"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: pgReq, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// ------------------ Redis container ------------------
	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: redisReq, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	defer redisContainer.Terminate(ctx)

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// ------------------ Run ------------------
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(testCtx,
			"127.0.0.1", "8086", "debug",
			pgHost, pgPort.Int(), "user", "password", "testdb",
			5, 2,
			redisHost, redisPort.Int(), 0, "",
			"", "user_events", // Kafka disabled
			"test-api-key", 120,
		)
	}()

	select {
	case <-time.After(15 * time.Second):
		t.Fatal("test timed out")
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected run to succeed, got error: %v", err)
		}
		t.Log("run completed successfully")
	}
}
