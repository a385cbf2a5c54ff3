package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means Redis answers but the index or the provider does not.
	Degraded Status = "degraded"
	// Unhealthy means Redis itself is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK      CheckResult = "ok"
	CheckMissing CheckResult = "missing"
	CheckError   CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentRedis     = "redis"
	ComponentIndex     = "index"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Provider string
	Checks   map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	redis     Pinger
	index     IndexProber
	embedding EmbeddingChecker
	provider  string
}

// New creates a Service. index and embedding can be nil.
func New(redis Pinger, index IndexProber, embedding EmbeddingChecker, provider string) *Service {
	return &Service{redis: redis, index: index, embedding: embedding, provider: provider}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	if err := s.redis.Ping(ctx); err != nil {
		checks[ComponentRedis] = CheckError
		// без redis индекс проверять бессмысленно
		return Report{Status: Unhealthy, Provider: s.provider, Checks: checks}
	}
	checks[ComponentRedis] = CheckOK

	if s.index != nil {
		exists, err := s.index.IndexExists(ctx)
		switch {
		case err != nil:
			checks[ComponentIndex] = CheckError
		case !exists:
			checks[ComponentIndex] = CheckMissing
		default:
			checks[ComponentIndex] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[ComponentEmbedding] = CheckError
		} else {
			checks[ComponentEmbedding] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Provider: s.provider, Checks: checks}
}
