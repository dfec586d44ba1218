package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/angelmondragon/arbitra-backend/api/responses"
	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/redis"
)

const (
	envHeader          = "X-Arbitra-Env"
	readyCheckTimeout  = 3 * time.Second
	checkStatusOK      = "ok"
	checkStatusFailing = "failing"
)

// CanisterProbe reports the health string of a named canister.
type CanisterProbe interface {
	Health(ctx context.Context, canister string) (string, error)
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Redis and calls the health query of every configured
// canister concurrently. Any failing dependency yields 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, cache redis.Pinger, probe CanisterProbe, canisters []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			checks = make(map[string]string, len(canisters)+1)
		)
		record := func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[name] = checkStatusFailing
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_failing")
				}
				return
			}
			checks[name] = checkStatusOK
		}

		if cache != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				record("redis", cache.Ping(ctx))
			}()
		}
		if probe != nil {
			for _, name := range canisters {
				if name == "" {
					continue
				}
				wg.Add(1)
				go func(name string) {
					defer wg.Done()
					_, err := probe.Health(ctx, name)
					record("canister:"+name, err)
				}(name)
			}
		}
		wg.Wait()

		out := readiness{Status: "ready", Checks: checks}
		status := http.StatusOK
		for _, v := range checks {
			if v != checkStatusOK {
				out.Status = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
		responses.WriteSuccessStatus(w, status, out)
	}
}
