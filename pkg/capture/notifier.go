package capture

import (
	"strconv"
	"strings"

	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/record"
)

// LogNotifier is a Notifier that writes a one-line summary of every
// completed transaction to the logger. Hosts that deliver real OS
// notifications implement Notifier themselves; this one doubles as the
// reference implementation and the CLI default.
type LogNotifier struct {
	Log logger.Logger
}

// Notify logs a "200 GET /path?query" style summary.
func (n *LogNotifier) Notify(method, url string, status *int) {
	n.Log.Info("%s", Summary(method, url, status))
}

// Summary builds the short status-method-path line shown for a
// completed transaction.
func Summary(method, url string, status *int) string {
	_, path, query := record.SplitURL(url)
	if query != "" {
		path = path + "?" + query
	}
	parts := make([]string, 0, 3)
	if status != nil {
		parts = append(parts, strconv.Itoa(*status))
	}
	if method != "" {
		parts = append(parts, method)
	}
	if path != "" {
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return url
	}
	return strings.Join(parts, " ")
}
