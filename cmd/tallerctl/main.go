package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/thrasher-corp/tallerd/core"
	"github.com/urfave/cli/v2"
)

var (
	host     string
	username string
	password string
	timeout  time.Duration
)

const defaultTimeout = time.Second * 30

func main() {
	app := cli.NewApp()
	app.Name = "tallerctl"
	app.Version = core.Version(true)
	app.EnableBashCompletion = true
	app.Usage = "command line interface for managing the tallerd daemon"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "host",
			Value:       "localhost:9051",
			Usage:       "the REST host to connect to",
			Destination: &host,
		},
		&cli.StringFlag{
			Name:        "user",
			Value:       "admin",
			Usage:       "the REST username for auth gated routes",
			Destination: &username,
		},
		&cli.StringFlag{
			Name:        "password",
			Value:       "Password",
			Usage:       "the REST password for auth gated routes",
			Destination: &password,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       defaultTimeout,
			Usage:       "the default timeout value for requests",
			Destination: &timeout,
		},
	}
	app.Commands = []*cli.Command{
		createCommand,
		statusCommand,
		listCommand,
		finalizeCommand,
		cancelCommand,
		workshopsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// call runs one request against the daemon and prints the wrapped response.
// Auth credentials are only attached when the route needs them.
func call(c *cli.Context, method, path string, payload interface{}, authed bool) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(c.Context, method, "http://"+host+path, reader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.SetBasicAuth(username, password)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", " "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(pretty.String())
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %s", resp.Status)
	}
	return nil
}
