// Dev runner that stands up throwaway MariaDB and MinIO containers matching
// the environment variables in a .env file, then blocks until interrupted.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the wadtheplanet dev containers with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx := context.Background()

	dbContainer, err := startMariaDB(ctx)
	if err != nil {
		log.Fatalf("Failed to start MariaDB: %v\n", err)
	}

	minioContainer, err := startMinio(ctx)
	if err != nil {
		_ = dbContainer.Terminate(ctx)
		log.Fatalf("Failed to start MinIO: %v\n", err)
	}

	log.Println("Containers running, press Ctrl+C to stop")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)
	<-sigs

	log.Println("Terminating containers...")
	if err := minioContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate MinIO: %v\n", err)
	}
	if err := dbContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate MariaDB: %v\n", err)
	}
}

func startMariaDB(ctx context.Context) (testcontainers.Container, error) {
	database := envOr("DB_DATABASE", "wadtheplanet")
	user := envOr("DB_USER", "wadtheplanet")
	password := envOr("DB_PASSWORD", "wadtheplanet")
	port := envOr("DB_PORT", "3306")

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_DATABASE":             database,
			"MARIADB_USER":                 user,
			"MARIADB_PASSWORD":             password,
			"MARIADB_RANDOM_ROOT_PASSWORD": "yes",
		},
		HostConfigModifier: hostPortBinding("3306/tcp", port),
		WaitingFor:         wait.ForListeningPort("3306/tcp").WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	// The listening port comes up before the grant tables do; ping until the
	// configured user can actually connect.
	dsn := fmt.Sprintf("%s:%s@tcp(localhost:%s)/%s", user, password, port, database)
	deadline := time.Now().Add(2 * time.Minute)
	for {
		db, err := sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			db.Close()
		}
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("mariadb never became ready: %w", err)
		}
		time.Sleep(2 * time.Second)
	}

	log.Printf("MariaDB ready on localhost:%s database %s", port, database)
	return container, nil
}

func startMinio(ctx context.Context) (testcontainers.Container, error) {
	accessKey := envOr("S3_ACCESS_KEY", "wadtheplanet")
	secretKey := envOr("S3_SECRET_KEY", "wadtheplanet")

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		HostConfigModifier: hostPortBinding("9000/tcp", "9000"),
		WaitingFor:         wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("MinIO ready on localhost:9000")
	return container, nil
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func hostPortBinding(containerPort nat.Port, hostPort string) func(*dockercontainer.HostConfig) {
	return func(hc *dockercontainer.HostConfig) {
		hc.PortBindings = nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: hostPort}},
		}
	}
}
