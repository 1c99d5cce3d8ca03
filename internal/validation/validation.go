// Package validation checks the backing services the API depends on, at
// startup and from the health endpoint.
package validation

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/logger"
	"go.uber.org/zap"
)

// Services that can be marked required with SNAPSHELF_REQUIRE_<NAME>.
var knownServices = []string{"database", "elasticsearch", "s3", "redis"}

const defaultCheckTimeout = 10 * time.Second

// Check probes one service.
type Check func(ctx context.Context) error

// ServiceValidator runs registered service checks. Required services must
// be registered and healthy for ValidateServices to pass; optional ones
// only log.
type ServiceValidator struct {
	mu       sync.RWMutex
	checks   map[string]Check
	required map[string]bool
	timeout  time.Duration
}

// NewServiceValidator creates a validator requiring the services named in
// the SNAPSHELF_REQUIRE_* environment variables.
func NewServiceValidator() *ServiceValidator {
	return NewServiceValidatorFor(parseRequiredServices(os.Getenv))
}

// NewServiceValidatorFor creates a validator requiring the given services.
func NewServiceValidatorFor(required []string) *ServiceValidator {
	sv := &ServiceValidator{
		checks:   make(map[string]Check),
		required: make(map[string]bool, len(required)),
		timeout:  defaultCheckTimeout,
	}
	for _, name := range required {
		sv.required[name] = true
	}
	return sv
}

// Register adds or replaces the check for a service.
func (sv *ServiceValidator) Register(name string, check Check) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.checks[name] = check
}

// Required lists the required services, sorted.
func (sv *ServiceValidator) Required() []string {
	names := make([]string, 0, len(sv.required))
	for name := range sv.required {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateServices runs every registered check and fails on the first
// required service that is unregistered or unhealthy.
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	for _, name := range sv.Required() {
		if _, ok := sv.check(name); !ok {
			return fmt.Errorf("required service %q is not configured", name)
		}
	}

	for _, name := range sv.names() {
		check, _ := sv.check(name)
		err := sv.run(ctx, check)
		switch {
		case err == nil:
			logger.Log.Info("✅ Service validated", zap.String("service", name))
		case sv.required[name]:
			logger.ErrorWithFields("❌ Required service validation failed", err, zap.String("service", name))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		default:
			logger.WarnWithFields("Optional service unavailable", err, zap.String("service", name))
		}
	}
	return nil
}

// Status runs every check and reports "ok" or the error text per service.
// The bool is false when any required service is unhealthy.
func (sv *ServiceValidator) Status(ctx context.Context) (map[string]string, bool) {
	status := make(map[string]string)
	healthy := true
	for _, name := range sv.Required() {
		if _, ok := sv.check(name); !ok {
			status[name] = "not configured"
			healthy = false
		}
	}
	for _, name := range sv.names() {
		check, _ := sv.check(name)
		if err := sv.run(ctx, check); err != nil {
			status[name] = err.Error()
			if sv.required[name] {
				healthy = false
			}
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}

func (sv *ServiceValidator) run(ctx context.Context, check Check) error {
	ctx, cancel := context.WithTimeout(ctx, sv.timeout)
	defer cancel()
	return check(ctx)
}

func (sv *ServiceValidator) check(name string) (Check, bool) {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	check, ok := sv.checks[name]
	return check, ok
}

func (sv *ServiceValidator) names() []string {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseRequiredServices reads SNAPSHELF_REQUIRE_<SERVICE> for each known service.
func parseRequiredServices(getenv func(string) string) []string {
	var required []string
	for _, service := range knownServices {
		envVar := "SNAPSHELF_REQUIRE_" + strings.ToUpper(service)
		if isTruthy(getenv(envVar)) {
			required = append(required, service)
		}
	}
	return required
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
