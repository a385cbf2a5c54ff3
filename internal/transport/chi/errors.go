package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scifinder/internal/domain"
	"github.com/kailas-cloud/scifinder/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers is ordered: a timeout wrapped together with ErrIndexUnavailable is still a 504.
var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout, false),
	sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed, true),
	sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeInvalidDocument, true),
	sentinelHandler(domain.ErrInvalidMapping, http.StatusBadRequest, codeValidationFailed, false),
	sentinelHandler(domain.ErrProviderQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded, false),
	sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderUnavailable, false),
	sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable, false),
}

// sentinelHandler matches a single sentinel. Validation errors carry a
// caller-facing message; everything else only exposes the sentinel text.
func sentinelHandler(sentinel error, status int, code string, verbose bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if verbose {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
