package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_snmp"

func init() {
	register(Plugin{
		Name:        "check_snmp",
		Description: "Checks the status of remote machines and obtains system information via SNMP.",
		Example:     "check_snmp -H 192.0.2.10 -C public -o .1.3.6.1.2.1.1.3.0 -w 1: -c 1:",
		Check:       check_snmp.Check,
	})
}
