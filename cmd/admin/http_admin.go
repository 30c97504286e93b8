package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// metricsCmd prints a running bridge's health and metrics.
func metricsCmd(args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:33016", "bridge base url")
	_ = fs.Parse(args)

	base := strings.TrimRight(strings.TrimSpace(*baseURL), "/")
	cl := &http.Client{Timeout: 5 * time.Second}
	ok := true
	for _, p := range []string{"/healthz", "/metrics"} {
		resp, err := cl.Get(base + p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "request:", err)
			os.Exit(1)
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if p == "/healthz" {
			fmt.Printf("healthz: %d %s\n", resp.StatusCode, strings.TrimSpace(string(b)))
		} else {
			fmt.Print(string(b))
		}
		if resp.StatusCode/100 != 2 {
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}
}
