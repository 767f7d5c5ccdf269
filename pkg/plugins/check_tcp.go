package plugins

import "github.com/consol-monitoring/checkplugins/pkg/check_tcp"

func init() {
	register(Plugin{
		Name:        "check_tcp",
		Description: "Tests TCP connections with the specified host and optionally the server response.",
		Example:     "check_tcp -H mail.example.com -p 25 -e '220 ' -w 1 -c 2",
		Check:       check_tcp.Check,
	})
}
