package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pelageech/freshserv/nocache"
)

const (
	defaultURL     = "http://127.0.0.1:8080/"
	defaultTimeout = 2000
)

var (
	target  = flag.String("url", defaultURL, "URL to probe for freshness headers")
	timeout = flag.Int("tout", defaultTimeout, "timeout for the probe request, ms")

	c = &http.Client{}
)

type expectedHeader struct {
	name string
	want string
}

// The probe checks the exact values the server injects, so a proxy
// rewriting them in between is caught too.
var expected = []expectedHeader{
	{"Cache-Control", nocache.CacheControlValue},
	{"Pragma", nocache.PragmaValue},
	{"Expires", nocache.ExpiresValue},
}

func main() {
	flag.Parse()

	if *target == "" {
		fmt.Println("URL is not defined!")
		flag.Usage()
		os.Exit(1)
	}

	c.Timeout = time.Duration(*timeout) * time.Millisecond

	resp, err := c.Get(*target)
	if err != nil {
		fmt.Println("An error occurred while processing the request: ", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	ok := true
	for _, h := range expected {
		if got := resp.Header.Get(h.name); got != h.want {
			fmt.Printf("%s: got %q, want %q\n", h.name, got, h.want)
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}

	fmt.Printf("All freshness headers present on %s (status %d)\n", *target, resp.StatusCode)
}
