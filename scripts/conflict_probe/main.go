package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// conflict_probe hammers a single issue with racing versioned updates and
// checks that exactly one writer wins each round. A round where zero or more
// than one PATCH succeeds means the optimistic lock is broken.

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type issuePayload struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

type roundResult struct {
	Round     int
	Successes int
	Conflicts int
	Errors    int
}

type probe struct {
	client *http.Client
	base   string
	actor  string
}

func main() {
	var (
		base    string
		actor   string
		project string
		writers int
		rounds  int
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&actor, "actor", "conflict-probe", "X-Actor-ID header value")
	flag.StringVar(&project, "project", "", "Existing project ID (created when empty)")
	flag.IntVar(&writers, "writers", 8, "Concurrent writers per round")
	flag.IntVar(&rounds, "rounds", 10, "Number of racing rounds")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	p := &probe{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimRight(base, "/"),
		actor:  actor,
	}

	if project == "" {
		id, err := p.createProject()
		if err != nil {
			log.Fatalf("failed to create probe project: %v", err)
		}
		project = id
	}

	issue, err := p.createIssue(project)
	if err != nil {
		log.Fatalf("failed to create probe issue: %v", err)
	}
	fmt.Printf("probing issue %s with %d writers over %d rounds\n", issue.ID, writers, rounds)

	var (
		results     []roundResult
		lostUpdates int
	)
	version := issue.Version
	for round := 1; round <= rounds; round++ {
		res := p.race(issue.ID, version, round, writers)
		if res.Successes != 1 {
			lostUpdates++
		}
		results = append(results, res)

		current, err := p.getIssue(issue.ID)
		if err != nil {
			log.Fatalf("failed to re-read issue: %v", err)
		}
		version = current.Version
	}

	final, err := p.getIssue(issue.ID)
	if err != nil {
		log.Fatalf("failed to read final issue state: %v", err)
	}

	printReport(results, issue.Version, final.Version, int64(rounds))

	wantVersion := issue.Version + int64(rounds)
	if lostUpdates > 0 || final.Version != wantVersion {
		fmt.Printf("FAIL: %d broken rounds, final version %d (want %d)\n", lostUpdates, final.Version, wantVersion)
		os.Exit(1)
	}
	fmt.Println("OK: every round had exactly one winner")
}

// race fires writers concurrent PATCHes carrying the same expected_version.
func (p *probe) race(issueID string, version int64, round, writers int) roundResult {
	res := roundResult{Round: round}
	statuses := make(chan int, writers)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			body := map[string]interface{}{
				"expected_version": version,
				"title":            fmt.Sprintf("probe round %d writer %d", round, writer),
			}
			status, err := p.do(http.MethodPatch, "/issues/"+issueID, body, nil)
			if err != nil {
				statuses <- -1
				return
			}
			statuses <- status
		}(w)
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		switch status {
		case http.StatusOK:
			res.Successes++
		case http.StatusConflict:
			res.Conflicts++
		default:
			res.Errors++
		}
	}
	return res
}

func (p *probe) createProject() (string, error) {
	body := map[string]interface{}{
		"name":        fmt.Sprintf("conflict-probe-%d", time.Now().Unix()),
		"description": "scratch project for lock probing",
	}
	var created issuePayload
	status, err := p.do(http.MethodPost, "/projects", body, &created)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", status)
	}
	return created.ID, nil
}

func (p *probe) createIssue(projectID string) (*issuePayload, error) {
	body := map[string]interface{}{
		"title":      "conflict probe target",
		"project_id": projectID,
		"type":       "task",
		"priority":   "medium",
	}
	var created issuePayload
	status, err := p.do(http.MethodPost, "/issues", body, &created)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return &created, nil
}

func (p *probe) getIssue(id string) (*issuePayload, error) {
	var issue issuePayload
	status, err := p.do(http.MethodGet, "/issues/"+id, nil, &issue)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return &issue, nil
}

// do sends one request and decodes the envelope's data into out when given.
func (p *probe) do(method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, p.base+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-ID", p.actor)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, err
	}
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func printReport(results []roundResult, startVersion, finalVersion, rounds int64) {
	fmt.Println("Conflict Probe Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Successes != 1 {
			status = "BROKEN"
		}
		fmt.Printf("[%s] round %d: %d won, %d conflicted, %d errored\n",
			status, res.Round, res.Successes, res.Conflicts, res.Errors)
	}
	fmt.Printf("version advanced %d -> %d over %d rounds\n", startVersion, finalVersion, rounds)
}
