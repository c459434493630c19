// Package testdb starts disposable database servers on docker
// for the integration tests of the adapters.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// PingFn should open a connection using the input url and
// return an error if the database is not ready yet.
type PingFn func(url string) error

// StartPostgresDB starts a postgres server and returns its connection url,
// the test is skipped if docker is not available.
func StartPostgresDB(t *testing.T, dbName string, ping PingFn) (databaseURL string) {
	return start(t, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14.0",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=" + dbName,
			"listen_addresses = '*'",
		},
	}, "5432/tcp", func(hostAndPort string) string {
		return fmt.Sprintf("postgres://postgres:postgres@%s/%s?sslmode=disable", hostAndPort, dbName)
	}, ping)
}

// StartMySQLDB starts a mariadb server and returns its connection url,
// the test is skipped if docker is not available.
func StartMySQLDB(t *testing.T, dbName string, ping PingFn) (databaseURL string) {
	return start(t, &dockertest.RunOptions{
		Repository: "mariadb",
		Tag:        "10.8",
		Env: []string{
			"MARIADB_ROOT_PASSWORD=mysql",
			"MARIADB_DATABASE=" + dbName,
		},
	}, "3306/tcp", func(hostAndPort string) string {
		return fmt.Sprintf("root:mysql@(%s)/%s?timeout=30s&parseTime=true", hostAndPort, dbName)
	}, ping)
}

// StartSQLServerDB starts a sqlserver instance and returns its connection url,
// the test is skipped if docker is not available.
func StartSQLServerDB(t *testing.T, ping PingFn) (databaseURL string) {
	return start(t, &dockertest.RunOptions{
		Repository: "mcr.microsoft.com/mssql/server",
		Tag:        "2017-latest",
		Env: []string{
			"SA_PASSWORD=Sqls3rv3r",
			"ACCEPT_EULA=Y",
		},
	}, "1433/tcp", func(hostAndPort string) string {
		return fmt.Sprintf("sqlserver://sa:Sqls3rv3r@%s?databaseName=master", hostAndPort)
	}, ping)
}

func start(
	t *testing.T,
	options *dockertest.RunOptions,
	port string,
	buildURL func(hostAndPort string) string,
	ping PingFn,
) string {
	startTime := time.Now()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not connect to docker: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("could not connect to docker: %s", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(options, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start %s: %s", options.Repository, err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("could not purge %s: %s", options.Repository, err)
		}
	})

	databaseURL := buildURL(resource.GetHostPort(port))

	resource.Expire(60) // Tell docker to hard kill the container in 60 seconds

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = 30 * time.Second
	err = pool.Retry(func() error {
		return ping(databaseURL)
	})
	if err != nil {
		t.Fatalf("could not connect to %s after %v: %s", options.Repository, time.Since(startTime), err)
	}

	t.Logf("%s ready to run in %v", options.Repository, time.Since(startTime))
	return databaseURL
}
