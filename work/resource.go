package work

import (
	"strconv"
	"time"

	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/resources"
)

// resourceFromDefinition turns a LockResponse.Resources entry into a
// resources.ProvidedResource, reading delay/rate-limit fields out of
// its Options map the way a DatalineupResource's spec carries them.
func resourceFromDefinition(def manager.ComponentDefinition) (resources.ProvidedResource, error) {
	provided := resources.ProvidedResource{
		Type:  def.Type,
		Name:  def.Name,
		Value: def.Options["data"],
	}

	if raw, ok := def.Options["defaultDelay"].(string); ok && raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil {
			return resources.ProvidedResource{}, errors.Wrapf(err, "resource %q defaultDelay", def.Name)
		}
		provided.DelayAfter = delay
	}

	limiter, err := limiterFromOptions(def.Options)
	if err != nil {
		return resources.ProvidedResource{}, errors.Wrapf(err, "resource %q rate limit", def.Name)
	}
	provided.Limiter = limiter

	return provided, nil
}

func limiterFromOptions(options map[string]any) (resources.Limiter, error) {
	raw, ok := options["rateLimits"]
	if !ok {
		return nil, nil
	}
	specs, ok := raw.([]any)
	if !ok || len(specs) == 0 {
		return nil, nil
	}

	strategy, _ := options["strategy"].(string)
	if strategy == "" {
		strategy = "fixed"
	}

	var limiters []resources.Limiter
	for _, s := range specs {
		spec, ok := s.(string)
		if !ok {
			continue
		}
		count, period, err := parseRateLimit(spec)
		if err != nil {
			return nil, err
		}
		switch strategy {
		case "moving":
			limiters = append(limiters, resources.NewMovingWindowLimiter(float64(count)/period.Seconds(), count))
		default:
			limiters = append(limiters, resources.NewFixedWindowLimiter(count, period))
		}
	}
	if len(limiters) == 0 {
		return nil, nil
	}
	if len(limiters) == 1 {
		return limiters[0], nil
	}
	return resources.NewMultiLimiter(limiters...), nil
}

// parseRateLimit parses "<n>/<period>" (e.g. "100/1m", "5/10s").
func parseRateLimit(spec string) (int, time.Duration, error) {
	idx := -1
	for i, r := range spec {
		if r == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, errors.Newf("malformed rate limit %q, want \"<n>/<period>\"", spec)
	}
	countStr, periodStr := spec[:idx], spec[idx+1:]

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "rate limit count %q", countStr)
	}
	period, err := time.ParseDuration(periodStr)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "rate limit period %q", periodStr)
	}
	return count, period, nil
}
