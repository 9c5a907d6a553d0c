package loadgen

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type sessionStart struct {
	SessionID string `json:"session_id"`
}

type turn struct {
	Duplicate bool `json:"duplicate"`
}

type riskReport struct {
	Full         float64 `json:"full"`
	Band         string  `json:"band"`
	Insufficient bool    `json:"insufficient"`
}

// drivePersonas runs every persona through the API concurrently.
func drivePersonas(ctx context.Context, cfg *Config, personas []Persona, stats *Stats) []Outcome {
	log.Printf("Driving %d users with %d workers...", len(personas), cfg.Workers)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	outcomes := make([]Outcome, len(personas))

	var (
		driven     int64
		failed     int64
		utterances int64
		lastReport atomic.Int64
	)
	reportInterval := time.Second

	indexChan := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				out, n := drivePersona(ctx, client, personas[index])
				outcomes[index] = out
				atomic.AddInt64(&utterances, int64(n))
				if out.Err != "" {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Printf("user %s failed: %s", out.UserID, out.Err)
					}
				}
				total := atomic.AddInt64(&driven, 1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if time.Duration(now-last) >= reportInterval && lastReport.CompareAndSwap(last, now) {
					log.Printf("Progress: %d/%d users (failed: %d)", total, len(personas), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range personas {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.UsersDriven = int(atomic.LoadInt64(&driven))
	stats.UsersFailed = int(atomic.LoadInt64(&failed))
	stats.Utterances = int(atomic.LoadInt64(&utterances))
	for _, o := range outcomes {
		stats.Duplicates += o.Duplicates
	}
	return outcomes
}

// drivePersona saves the profile, runs the interview and reads the risk. It
// returns the outcome and the number of utterances posted.
func drivePersona(ctx context.Context, client *HTTPClient, p Persona) (Outcome, int) {
	out := Outcome{UserID: p.UserID}
	fail := func(err error) (Outcome, int) {
		out.Err = err.Error()
		return out, 0
	}

	if status, err := client.Do(ctx, http.MethodPut, "/users/"+p.UserID+"/profile", p.Form, nil); err != nil {
		return fail(err)
	} else if status != http.StatusOK {
		return fail(fmt.Errorf("put profile: status %d", status))
	}

	var start sessionStart
	if status, err := client.Do(ctx, http.MethodPost, "/users/"+p.UserID+"/sessions", nil, &start); err != nil {
		return fail(err)
	} else if status != http.StatusCreated {
		return fail(fmt.Errorf("start session: status %d", status))
	}
	sessionPath := "/sessions/" + start.SessionID

	posted := 0
	for i, text := range p.Answers {
		body := map[string]string{"utterance_id": strconv.Itoa(i), "text": text}
		sends := 1
		if i == 0 && p.ResendFirst {
			sends = 2
		}
		for j := 0; j < sends; j++ {
			var t turn
			status, err := client.Do(ctx, http.MethodPost, sessionPath+"/utterances", body, &t)
			posted++
			if err != nil {
				return fail(err)
			}
			if status != http.StatusOK {
				return fail(fmt.Errorf("utterance %d: status %d", i, status))
			}
			if t.Duplicate {
				out.Duplicates++
			}
		}
	}

	if p.SaveDetect {
		if status, err := client.Do(ctx, http.MethodPost, sessionPath+"/save", nil, nil); err != nil {
			return fail(err)
		} else if status != http.StatusOK {
			return fail(fmt.Errorf("save detected: status %d", status))
		}
	}
	_, _ = client.Do(ctx, http.MethodDelete, sessionPath, nil, nil)

	var report riskReport
	status, err := client.Do(ctx, http.MethodGet, "/users/"+p.UserID+"/risk", nil, &report)
	if err != nil {
		return fail(err)
	}
	out.Status = status
	out.Full = report.Full
	out.Band = report.Band
	out.Insufficient = status == http.StatusUnprocessableEntity
	return out, posted
}
