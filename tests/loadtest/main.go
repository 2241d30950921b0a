// Command loadtest hammers a running filmsync read API and prints latency percentiles.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

const (
	defaultBaseURL = "http://127.0.0.1:8090"
	numWorkers     = 50
	phaseDuration  = 10 * time.Second
)

var searchTerms = []string{"love", "night", "the", "city", "a", "story", "zzz"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

// catalogShape is what the workers need to build realistic queries.
type catalogShape struct {
	baseURL   string
	genres    []string
	countries []string
	ids       []int64
}

func main() {
	base := defaultBaseURL
	if v := os.Getenv("FILMSYNC_LOADTEST_URL"); v != "" {
		base = v
	}

	fmt.Println("=== filmsync load test ===")
	fmt.Printf("Target: %s | Workers: %d | Phase: %s\n\n", base, numWorkers, phaseDuration)

	fmt.Print("Waiting for server... ")
	if !waitForServer(base) {
		fmt.Println("FAILED: server not responding")
		os.Exit(1)
	}
	fmt.Println("OK")

	shape, err := discover(base)
	if err != nil {
		fmt.Printf("Unable to read catalog shape: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catalog: %d genres, %d countries, %d sampled ids\n", len(shape.genres), len(shape.countries), len(shape.ids))

	fmt.Println("\n--- Phase 1: browsing (list and detail) ---")
	runPhase(phaseDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.6 {
			return shape.list(rng)
		}
		return shape.detail(rng)
	})

	fmt.Println("\n--- Phase 2: mixed read load ---")
	runPhase(phaseDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return shape.list(rng)
		case r < 0.60:
			return shape.detail(rng)
		case r < 0.85:
			return shape.search(rng)
		case r < 0.95:
			return shape.facets(rng)
		default:
			return shape.get("/sync", "GET /sync")
		}
	})
}

func waitForServer(base string) bool {
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(base + "/health")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func fetchJSON(target string, out any) error {
	resp, err := httpClient.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", target, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func discover(base string) (*catalogShape, error) {
	shape := &catalogShape{baseURL: base}
	if err := fetchJSON(base+"/genres", &shape.genres); err != nil {
		return nil, err
	}
	if err := fetchJSON(base+"/countries", &shape.countries); err != nil {
		return nil, err
	}

	var page struct {
		Films []struct {
			ID int64 `json:"id"`
		} `json:"films"`
	}
	if err := fetchJSON(base+"/films", &page); err != nil {
		return nil, err
	}
	for _, f := range page.Films {
		shape.ids = append(shape.ids, f.ID)
	}
	return shape, nil
}

func (c *catalogShape) get(path, endpoint string) result {
	start := time.Now()
	resp, err := httpClient.Get(c.baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode >= 500}
}

func (c *catalogShape) list(rng *rand.Rand) result {
	q := url.Values{}
	if len(c.genres) > 0 && rng.Float64() < 0.5 {
		q.Set("genre", c.genres[rng.Intn(len(c.genres))])
	}
	if rng.Float64() < 0.3 {
		q.Set("year", strconv.Itoa(1950+10*rng.Intn(8)))
	}
	if len(c.countries) > 0 && rng.Float64() < 0.3 {
		q.Set("country", c.countries[rng.Intn(len(c.countries))])
	}
	return c.get("/films?"+q.Encode(), "GET /films")
}

func (c *catalogShape) detail(rng *rand.Rand) result {
	if len(c.ids) == 0 {
		return c.get("/films/1", "GET /films/{id}")
	}
	return c.get("/films/"+strconv.FormatInt(c.ids[rng.Intn(len(c.ids))], 10), "GET /films/{id}")
}

func (c *catalogShape) search(rng *rand.Rand) result {
	return c.get("/search?q="+url.QueryEscape(searchTerms[rng.Intn(len(searchTerms))]), "GET /search")
}

func (c *catalogShape) facets(rng *rand.Rand) result {
	if rng.Intn(2) == 0 {
		return c.get("/genres", "GET /genres")
	}
	return c.get("/countries", "GET /countries")
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	rows := make([][]string, 0, len(endpoints))
	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})
		rows = append(rows, []string{
			ep,
			strconv.FormatInt(s.count, 10),
			strconv.FormatInt(s.errors, 10),
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	if err := table.Bulk(rows); err != nil {
		fmt.Printf("render: %s\n", err)
		return
	}
	if err := table.Render(); err != nil {
		fmt.Printf("render: %s\n", err)
		return
	}

	if totalOps == 0 {
		return
	}
	fmt.Printf("Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
