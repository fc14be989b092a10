package cognitoauthz

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

var authorizeDuration = StatsForNerds.NewHistogram("cognitoauthz_authorize_duration_seconds")

func metricName(name, label, value string) string {
	return fmt.Sprintf(`cognitoauthz_%s{%s=%q}`, name, label, value)
}

func keySetFetches(result string) *metrics.Counter {
	return StatsForNerds.GetOrCreateCounter(metricName("keyset_fetch_total", "result", result))
}

func decisions(effect Effect) *metrics.Counter {
	return StatsForNerds.GetOrCreateCounter(metricName("decisions_total", "effect", string(effect)))
}

func rejections(reason string) *metrics.Counter {
	return StatsForNerds.GetOrCreateCounter(metricName("rejections_total", "reason", reason))
}
