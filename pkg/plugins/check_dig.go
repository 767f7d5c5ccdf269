package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_dig"

func init() {
	register(Plugin{
		Name:        "check_dig",
		Description: "Tests the DNS service on the specified host.",
		Example:     "check_dig -H 127.0.0.1 -l www.example.com -a 192.0.2.1 -w 0.5 -c 1",
		Check:       check_dig.Check,
	})
}
