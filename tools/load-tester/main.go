package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type realmRequest struct {
	Realm        string `json:"realm"`
	CustomerType string `json:"customer_type"`
	DisplayName  string `json:"display_name"`
	Enabled      bool   `json:"enabled"`
}

type counters struct {
	created, fetched, deleted, errors atomic.Int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the realm API")
	prefix := flag.String("prefix", "lt", "Prefix for generated realm names")
	customerType := flag.String("customer-type", "LoadTest", "customer_type for generated realms")
	concurrency := flag.Int("c", 4, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Float64("rps", 5, "Realm lifecycles per second limit")
	keep := flag.Bool("keep", false, "Keep created realms instead of deleting them (seeding)")
	flag.Parse()

	log.Printf("Starting realm load test on %s", *baseURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %.2f, Keep: %t", *concurrency, *duration, *rps, *keep)

	var wg sync.WaitGroup
	var c counters
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), *concurrency)
	client := resty.New().
		SetBaseURL(strings.TrimRight(*baseURL, "/")).
		SetTimeout(30 * time.Second)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return // deadline reached
				}
				name := *prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
				if err := lifecycle(ctx, client, name, *customerType, *keep, &c); err != nil {
					if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
						return
					}
					c.errors.Add(1)
					log.Printf("realm %s: %v", name, err)
				}
			}
		}()
	}

	wg.Wait()

	log.Println("Load test finished.")
	log.Printf("Created: %d", c.created.Load())
	log.Printf("Fetched: %d", c.fetched.Load())
	log.Printf("Deleted: %d", c.deleted.Load())
	log.Printf("Errors: %d", c.errors.Load())
	log.Printf("Actual lifecycles/s: %.2f", float64(c.created.Load())/duration.Seconds())
}

// lifecycle creates a realm, reads it back and, unless keep is set, deletes it.
func lifecycle(ctx context.Context, client *resty.Client, name, customerType string, keep bool, c *counters) error {
	resp, err := client.R().
		SetContext(ctx).
		SetBody(realmRequest{Realm: name, CustomerType: customerType, DisplayName: "Load test " + name, Enabled: true}).
		Post("/realms/")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusCreated {
		return errors.New("create: " + resp.Status() + " " + resp.String())
	}
	c.created.Add(1)

	resp, err = client.R().SetContext(ctx).SetPathParam("name", name).Get("/realms/{name}")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.New("get: " + resp.Status())
	}
	c.fetched.Add(1)

	if keep {
		return nil
	}
	resp, err = client.R().SetContext(ctx).SetPathParam("name", name).Delete("/realms/{name}")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return errors.New("delete: " + resp.Status())
	}
	c.deleted.Add(1)
	return nil
}
