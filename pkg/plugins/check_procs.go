package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_procs"

func init() {
	register(Plugin{
		Name:        "check_procs",
		Description: "Checks all processes and generates WARNING or CRITICAL states if the metric is outside the thresholds.",
		Example:     "check_procs -w 2:2 -c 2:1024 -C httpd",
		Check:       check_procs.Check,
	})
}
