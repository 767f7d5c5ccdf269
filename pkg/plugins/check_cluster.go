package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_cluster"

func init() {
	register(Plugin{
		Name:        "check_cluster",
		Description: "Checks the state of a host or service cluster.",
		Example:     "check_cluster -s -d 0,0,1,2 -w 1 -c 2 -l 'Web cluster'",
		Check:       check_cluster.Check,
	})
}
